package brick

import (
	"bytes"
	"fmt"
	"io"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// FeePayer selects which side of a sale carries the marketplace fee. The
// encoding is fixed by the on-chain layout, which makes FeePayerBuyer the zero
// value.
type FeePayer uint8

const (
	FeePayerBuyer  FeePayer = 0
	FeePayerSeller FeePayer = 1
)

func (p FeePayer) String() string {
	switch p {
	case FeePayerBuyer:
		return "buyer"
	case FeePayerSeller:
		return "seller"
	default:
		return "unknown"
	}
}

// Record sizes including the discriminator.
const (
	pubkeySize = 32

	VaultSetSize        = 1 + MaxVaults*(pubkeySize+1)
	MarketplaceSize     = discriminatorSize + pubkeySize + 1 + (pubkeySize + 1 + 1) + (pubkeySize + 2 + 2 + 1) + (pubkeySize + pubkeySize + 2 + 2 + 1) + VaultSetSize + 1 + 1
	ProductSize         = discriminatorSize + ProductIDLength + 4*pubkeySize + 8 + 8 + 4 + 4 + 1 + 1
	GovernanceSize      = discriminatorSize + MaxGovernanceNameLength + 3*pubkeySize + 4*2 + 1 + 1
	RewardSize          = discriminatorSize + 2*pubkeySize + VaultSetSize + 1
	BonusSize           = discriminatorSize + 2*pubkeySize + 8 + 1 + 1
	PaymentSize         = discriminatorSize + 6*pubkeySize + 4*8 + 1 + 1
	RequestSize         = discriminatorSize + 2*pubkeySize + 1
	PurchaseCounterSize = discriminatorSize + 2*pubkeySize + 8 + 1
)

// Byte offsets used by GetProgramAccounts memcmp filters.
const (
	ProductAuthorityOffset   = discriminatorSize + ProductIDLength
	ProductMarketplaceOffset = ProductAuthorityOffset + pubkeySize
	PaymentSellerOffset      = discriminatorSize + 3*pubkeySize
	PaymentBuyerOffset       = PaymentSellerOffset + pubkeySize
)

// VaultEntry pairs a vault address with the bump it was created with.
type VaultEntry struct {
	Address solana.PublicKey // 32 bytes
	Bump    uint8            // 1 byte
}

// VaultSet is a bounded list of vaults stored at a fixed width.
type VaultSet struct {
	Len     uint8                 // 1 byte
	Entries [MaxVaults]VaultEntry // 5 * 33 bytes
}

func (v *VaultSet) List() []VaultEntry {
	return append([]VaultEntry(nil), v.Entries[:v.Len]...)
}

// BumpFor returns the stored bump of addr, or 0 when the set does not hold it.
func (v *VaultSet) BumpFor(addr solana.PublicKey) uint8 {
	for _, e := range v.Entries[:v.Len] {
		if e.Address.Equals(addr) {
			return e.Bump
		}
	}
	return 0
}

func (v *VaultSet) Contains(addr solana.PublicKey) bool {
	for _, e := range v.Entries[:v.Len] {
		if e.Address.Equals(addr) {
			return true
		}
	}
	return false
}

func (v *VaultSet) Append(addr solana.PublicKey, bump uint8) error {
	if v.Len >= MaxVaults {
		return ErrVaultCapacityExceeded
	}
	v.Entries[v.Len] = VaultEntry{Address: addr, Bump: bump}
	v.Len++
	return nil
}

// Remove drops addr and keeps the remaining entries packed.
func (v *VaultSet) Remove(addr solana.PublicKey) bool {
	for i := 0; i < int(v.Len); i++ {
		if !v.Entries[i].Address.Equals(addr) {
			continue
		}
		copy(v.Entries[i:], v.Entries[i+1:v.Len])
		v.Len--
		v.Entries[v.Len] = VaultEntry{}
		return true
	}
	return false
}

func (v *VaultSet) encode(enc *bin.Encoder) error {
	if err := enc.Encode(v.Len); err != nil {
		return err
	}
	for _, e := range v.Entries {
		if err := encodeFields(enc, e.Address, e.Bump); err != nil {
			return err
		}
	}
	return nil
}

func (v *VaultSet) decode(dec *bin.Decoder) error {
	if err := dec.Decode(&v.Len); err != nil {
		return err
	}
	if v.Len > MaxVaults {
		return fmt.Errorf("vault count %d exceeds max %d", v.Len, MaxVaults)
	}
	for i := range v.Entries {
		if err := decodeFields(dec, &v.Entries[i].Address, &v.Entries[i].Bump); err != nil {
			return err
		}
	}
	return nil
}

type PermissionConfig struct {
	AccessMint     solana.PublicKey // 32 bytes
	Permissionless bool             // 1 byte
	AllowSecondary bool             // 1 byte
}

type FeesConfig struct {
	DiscountMint    solana.PublicKey // 32 bytes
	FeeBps          uint16           // 2 bytes LE
	FeeReductionBps uint16           // 2 bytes LE
	FeePayer        FeePayer         // 1 byte
}

type RewardsConfig struct {
	RewardMint        solana.PublicKey // 32 bytes
	RewardTriggerMint solana.PublicKey // 32 bytes
	SellerRewardBps   uint16           // 2 bytes LE
	BuyerRewardBps    uint16           // 2 bytes LE
	RewardsEnabled    bool             // 1 byte
}

type Marketplace struct {
	Authority      solana.PublicKey
	DeliverToken   bool
	Permission     PermissionConfig
	Fees           FeesConfig
	Rewards        RewardsConfig
	BountyVaults   VaultSet
	Bump           uint8
	AccessMintBump uint8
}

func (m *Marketplace) Serialize(w io.Writer) error {
	enc := bin.NewBorshEncoder(w)
	if err := encodeFields(enc,
		DiscriminatorMarketplace,
		m.Authority,
		m.DeliverToken,
		m.Permission.AccessMint, m.Permission.Permissionless, m.Permission.AllowSecondary,
		m.Fees.DiscountMint, m.Fees.FeeBps, m.Fees.FeeReductionBps, m.Fees.FeePayer,
		m.Rewards.RewardMint, m.Rewards.RewardTriggerMint, m.Rewards.SellerRewardBps, m.Rewards.BuyerRewardBps, m.Rewards.RewardsEnabled,
	); err != nil {
		return err
	}
	if err := m.BountyVaults.encode(enc); err != nil {
		return err
	}
	return encodeFields(enc, m.Bump, m.AccessMintBump)
}

func (m *Marketplace) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorMarketplace); err != nil {
		return err
	}
	dec := bin.NewBorshDecoder(data[discriminatorSize:])
	if err := decodeFields(dec,
		&m.Authority,
		&m.DeliverToken,
		&m.Permission.AccessMint, &m.Permission.Permissionless, &m.Permission.AllowSecondary,
		&m.Fees.DiscountMint, &m.Fees.FeeBps, &m.Fees.FeeReductionBps, &m.Fees.FeePayer,
		&m.Rewards.RewardMint, &m.Rewards.RewardTriggerMint, &m.Rewards.SellerRewardBps, &m.Rewards.BuyerRewardBps, &m.Rewards.RewardsEnabled,
	); err != nil {
		return err
	}
	if m.Fees.FeePayer > FeePayerSeller {
		return fmt.Errorf("invalid fee payer %d", m.Fees.FeePayer)
	}
	if err := m.BountyVaults.decode(dec); err != nil {
		return err
	}
	return decodeFields(dec, &m.Bump, &m.AccessMintBump)
}

type Product struct {
	FirstID        [ProductIDHalfLength]byte // 32 bytes
	SecondID       [ProductIDHalfLength]byte // 32 bytes
	Authority      solana.PublicKey          // 32 bytes, the seller
	Marketplace    solana.PublicKey          // 32 bytes
	ProductMint    solana.PublicKey          // 32 bytes
	PaymentMint    solana.PublicKey          // 32 bytes
	Price          uint64                    // 8 bytes LE
	RefundTimespan uint64                    // 8 bytes LE, seconds
	Exemplars      int32                     // 4 bytes LE, -1 for unlimited
	ActivePayments uint32                    // 4 bytes LE
	Bump           uint8                     // 1 byte
	MintBump       uint8                     // 1 byte
}

func (p *Product) ID() string {
	return JoinProductID(p.FirstID, p.SecondID)
}

func (p *Product) Serialize(w io.Writer) error {
	return encodeFields(bin.NewBorshEncoder(w),
		DiscriminatorProduct,
		p.FirstID, p.SecondID,
		p.Authority, p.Marketplace, p.ProductMint, p.PaymentMint,
		p.Price, p.RefundTimespan, p.Exemplars, p.ActivePayments,
		p.Bump, p.MintBump,
	)
}

func (p *Product) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorProduct); err != nil {
		return err
	}
	if err := decodeFields(bin.NewBorshDecoder(data[discriminatorSize:]),
		&p.FirstID, &p.SecondID,
		&p.Authority, &p.Marketplace, &p.ProductMint, &p.PaymentMint,
		&p.Price, &p.RefundTimespan, &p.Exemplars, &p.ActivePayments,
		&p.Bump, &p.MintBump,
	); err != nil {
		return err
	}
	if p.Exemplars < UnlimitedExemplars {
		return fmt.Errorf("invalid exemplars %d", p.Exemplars)
	}
	return nil
}

type Governance struct {
	Name            [MaxGovernanceNameLength]byte
	Authority       solana.PublicKey
	Mint            solana.PublicKey
	BonusVault      solana.PublicKey
	FeeBps          uint16
	FeeReductionBps uint16
	SellerPromoBps  uint16
	BuyerPromoBps   uint16
	Bump            uint8
	VaultBump       uint8
}

func (g *Governance) Serialize(w io.Writer) error {
	return encodeFields(bin.NewBorshEncoder(w),
		DiscriminatorGovernance,
		g.Name, g.Authority, g.Mint, g.BonusVault,
		g.FeeBps, g.FeeReductionBps, g.SellerPromoBps, g.BuyerPromoBps,
		g.Bump, g.VaultBump,
	)
}

func (g *Governance) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorGovernance); err != nil {
		return err
	}
	return decodeFields(bin.NewBorshDecoder(data[discriminatorSize:]),
		&g.Name, &g.Authority, &g.Mint, &g.BonusVault,
		&g.FeeBps, &g.FeeReductionBps, &g.SellerPromoBps, &g.BuyerPromoBps,
		&g.Bump, &g.VaultBump,
	)
}

type Reward struct {
	Authority   solana.PublicKey
	Marketplace solana.PublicKey
	Vaults      VaultSet
	Bump        uint8
}

func (r *Reward) Serialize(w io.Writer) error {
	enc := bin.NewBorshEncoder(w)
	if err := encodeFields(enc, DiscriminatorReward, r.Authority, r.Marketplace); err != nil {
		return err
	}
	if err := r.Vaults.encode(enc); err != nil {
		return err
	}
	return enc.Encode(r.Bump)
}

func (r *Reward) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorReward); err != nil {
		return err
	}
	dec := bin.NewBorshDecoder(data[discriminatorSize:])
	if err := decodeFields(dec, &r.Authority, &r.Marketplace); err != nil {
		return err
	}
	if err := r.Vaults.decode(dec); err != nil {
		return err
	}
	return dec.Decode(&r.Bump)
}

type Bonus struct {
	Authority  solana.PublicKey
	Governance solana.PublicKey
	Amount     uint64
	Bump       uint8
	VaultBump  uint8
}

func (b *Bonus) Serialize(w io.Writer) error {
	return encodeFields(bin.NewBorshEncoder(w),
		DiscriminatorBonus, b.Authority, b.Governance, b.Amount, b.Bump, b.VaultBump)
}

func (b *Bonus) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorBonus); err != nil {
		return err
	}
	return decodeFields(bin.NewBorshDecoder(data[discriminatorSize:]),
		&b.Authority, &b.Governance, &b.Amount, &b.Bump, &b.VaultBump)
}

// Payment is an escrowed purchase waiting for either a refund or a seller
// withdrawal.
type Payment struct {
	Product          solana.PublicKey
	ProductMint      solana.PublicKey
	PaidMint         solana.PublicKey
	Seller           solana.PublicKey
	Buyer            solana.PublicKey
	Marketplace      solana.PublicKey
	Price            uint64 // total escrowed
	Quantity         uint64
	PaymentTimestamp uint64
	RefundConsumedAt uint64
	Bump             uint8
	VaultBump        uint8
}

func (p *Payment) Serialize(w io.Writer) error {
	return encodeFields(bin.NewBorshEncoder(w),
		DiscriminatorPayment,
		p.Product, p.ProductMint, p.PaidMint, p.Seller, p.Buyer, p.Marketplace,
		p.Price, p.Quantity, p.PaymentTimestamp, p.RefundConsumedAt,
		p.Bump, p.VaultBump,
	)
}

func (p *Payment) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorPayment); err != nil {
		return err
	}
	return decodeFields(bin.NewBorshDecoder(data[discriminatorSize:]),
		&p.Product, &p.ProductMint, &p.PaidMint, &p.Seller, &p.Buyer, &p.Marketplace,
		&p.Price, &p.Quantity, &p.PaymentTimestamp, &p.RefundConsumedAt,
		&p.Bump, &p.VaultBump,
	)
}

type Request struct {
	Authority   solana.PublicKey
	Marketplace solana.PublicKey
	Bump        uint8
}

func (r *Request) Serialize(w io.Writer) error {
	return encodeFields(bin.NewBorshEncoder(w), DiscriminatorRequest, r.Authority, r.Marketplace, r.Bump)
}

func (r *Request) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorRequest); err != nil {
		return err
	}
	return decodeFields(bin.NewBorshDecoder(data[discriminatorSize:]), &r.Authority, &r.Marketplace, &r.Bump)
}

// PurchaseCounter is the proof of purchase kept when the marketplace does not
// deliver product tokens.
type PurchaseCounter struct {
	Buyer   solana.PublicKey
	Product solana.PublicKey
	Units   uint64
	Bump    uint8
}

func (c *PurchaseCounter) Serialize(w io.Writer) error {
	return encodeFields(bin.NewBorshEncoder(w), DiscriminatorPurchaseCounter, c.Buyer, c.Product, c.Units, c.Bump)
}

func (c *PurchaseCounter) Deserialize(data []byte) error {
	if err := validateDiscriminator(data, DiscriminatorPurchaseCounter); err != nil {
		return err
	}
	return decodeFields(bin.NewBorshDecoder(data[discriminatorSize:]), &c.Buyer, &c.Product, &c.Units, &c.Bump)
}

// Marshal serializes an account record into a fresh buffer.
func Marshal(v interface{ Serialize(io.Writer) error }) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeFields(enc *bin.Encoder, fields ...any) error {
	for _, f := range fields {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func decodeFields(dec *bin.Decoder, fields ...any) error {
	for _, f := range fields {
		if err := dec.Decode(f); err != nil {
			return err
		}
	}
	return nil
}
