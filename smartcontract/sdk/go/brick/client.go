package brick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

type Client struct {
	log      *slog.Logger
	rpc      RPCClient
	executor *executor
}

func New(log *slog.Logger, rpc RPCClient, signer *solana.PrivateKey, programID solana.PublicKey, opts ...ExecutorOption) *Client {
	return &Client{
		log:      log,
		rpc:      rpc,
		executor: NewExecutor(log, rpc, signer, programID, opts...),
	}
}

func (c *Client) ProgramID() solana.PublicKey {
	if c.executor == nil {
		return solana.PublicKey{}
	}
	return c.executor.programID
}

func (c *Client) Signer() *solana.PrivateKey {
	if c.executor == nil {
		return nil
	}
	return c.executor.signer
}

func (c *Client) signerKey() (solana.PublicKey, error) {
	if c.executor.signer == nil {
		return solana.PublicKey{}, ErrNoPrivateKey
	}
	return c.executor.signer.PublicKey(), nil
}

func getAccount[T any, PT deserializer[T]](ctx context.Context, c *Client, kind string, addr solana.PublicKey) (*T, error) {
	account, err := c.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account data: %w", err)
	}
	if account == nil || account.Value == nil {
		return nil, ErrAccountNotFound
	}
	return deserialize[T, PT](kind, account.Value.Data.GetBinary())
}

// Keyed pairs a program account with its address.
type Keyed[T any] struct {
	Address solana.PublicKey
	Account T
}

func getProgramAccounts[T any, PT deserializer[T]](ctx context.Context, c *Client, kind string, disc [8]byte, filters ...solanarpc.RPCFilter) ([]Keyed[T], error) {
	opts := &solanarpc.GetProgramAccountsOpts{
		Filters: append([]solanarpc.RPCFilter{
			{
				Memcmp: &solanarpc.RPCFilterMemcmp{
					Offset: 0,
					Bytes:  solana.Base58(disc[:]),
				},
			},
		}, filters...),
	}

	accounts, err := c.rpc.GetProgramAccountsWithOpts(ctx, c.executor.programID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get program accounts: %w", err)
	}

	out := make([]Keyed[T], 0, len(accounts))
	for _, acct := range accounts {
		v, err := deserialize[T, PT](kind, acct.Account.Data.GetBinary())
		if err != nil {
			c.log.Warn("failed to deserialize program account", "kind", kind, "pubkey", acct.Pubkey, "error", err)
			continue
		}
		out = append(out, Keyed[T]{Address: acct.Pubkey, Account: *v})
	}
	return out, nil
}

func pubkeyFilter(offset uint64, key solana.PublicKey) solanarpc.RPCFilter {
	return solanarpc.RPCFilter{
		Memcmp: &solanarpc.RPCFilterMemcmp{
			Offset: offset,
			Bytes:  solana.Base58(key[:]),
		},
	}
}

func (c *Client) GetMarketplace(ctx context.Context, addr solana.PublicKey) (*Marketplace, error) {
	return getAccount[Marketplace](ctx, c, "marketplace", addr)
}

// GetMarketplaceByAuthority fetches the marketplace owned by authority.
func (c *Client) GetMarketplaceByAuthority(ctx context.Context, authority solana.PublicKey) (solana.PublicKey, *Marketplace, error) {
	pda, _, err := DeriveMarketplacePDA(c.executor.programID, authority)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	m, err := c.GetMarketplace(ctx, pda)
	return pda, m, err
}

func (c *Client) GetProduct(ctx context.Context, addr solana.PublicKey) (*Product, error) {
	return getAccount[Product](ctx, c, "product", addr)
}

func (c *Client) GetProductByID(ctx context.Context, marketplace solana.PublicKey, id string) (solana.PublicKey, *Product, error) {
	first, second, err := SplitProductID(id)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	pda, _, err := DeriveProductPDA(c.executor.programID, first, second, marketplace)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	p, err := c.GetProduct(ctx, pda)
	return pda, p, err
}

// GetProducts lists every product listed on marketplace.
func (c *Client) GetProducts(ctx context.Context, marketplace solana.PublicKey) ([]Keyed[Product], error) {
	return getProgramAccounts[Product](ctx, c, "product", DiscriminatorProduct,
		pubkeyFilter(ProductMarketplaceOffset, marketplace))
}

func (c *Client) GetGovernance(ctx context.Context, name string) (solana.PublicKey, *Governance, error) {
	padded, err := GovernanceName(name)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	pda, _, err := DeriveGovernancePDA(c.executor.programID, padded)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	g, err := getAccount[Governance](ctx, c, "governance", pda)
	return pda, g, err
}

func (c *Client) GetReward(ctx context.Context, participant, marketplace solana.PublicKey) (*Reward, error) {
	pda, _, err := DeriveRewardPDA(c.executor.programID, participant, marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	return getAccount[Reward](ctx, c, "reward", pda)
}

func (c *Client) GetBonus(ctx context.Context, participant, governance solana.PublicKey) (*Bonus, error) {
	pda, _, err := DeriveBonusPDA(c.executor.programID, participant, governance)
	if err != nil {
		return nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	return getAccount[Bonus](ctx, c, "bonus", pda)
}

func (c *Client) GetPayment(ctx context.Context, addr solana.PublicKey) (*Payment, error) {
	return getAccount[Payment](ctx, c, "payment", addr)
}

// GetPaymentsBySeller lists the open escrow payments owed to seller.
func (c *Client) GetPaymentsBySeller(ctx context.Context, seller solana.PublicKey) ([]Keyed[Payment], error) {
	return getProgramAccounts[Payment](ctx, c, "payment", DiscriminatorPayment,
		pubkeyFilter(PaymentSellerOffset, seller))
}

// GetPaymentsByBuyer lists the open escrow payments made by buyer.
func (c *Client) GetPaymentsByBuyer(ctx context.Context, buyer solana.PublicKey) ([]Keyed[Payment], error) {
	return getProgramAccounts[Payment](ctx, c, "payment", DiscriminatorPayment,
		pubkeyFilter(PaymentBuyerOffset, buyer))
}

func (c *Client) GetRequest(ctx context.Context, requester, marketplace solana.PublicKey) (*Request, error) {
	pda, _, err := DeriveRequestPDA(c.executor.programID, requester, marketplace)
	if err != nil {
		return nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	return getAccount[Request](ctx, c, "request", pda)
}

// GetRequests lists pending access requests for marketplace.
func (c *Client) GetRequests(ctx context.Context, marketplace solana.PublicKey) ([]Keyed[Request], error) {
	return getProgramAccounts[Request](ctx, c, "request", DiscriminatorRequest,
		pubkeyFilter(discriminatorSize+pubkeySize, marketplace))
}

func (c *Client) GetPurchaseCounter(ctx context.Context, buyer, product solana.PublicKey) (*PurchaseCounter, error) {
	pda, _, err := DerivePurchaseCounterPDA(c.executor.programID, buyer, product)
	if err != nil {
		return nil, fmt.Errorf("failed to derive PDA: %w", err)
	}
	return getAccount[PurchaseCounter](ctx, c, "purchase counter", pda)
}

func (c *Client) execute(ctx context.Context, name string, instruction solana.Instruction, err error) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	if err != nil {
		return solana.Signature{}, nil, fmt.Errorf("failed to build %s instruction: %w", name, err)
	}
	sig, res, err := c.executor.ExecuteTransaction(ctx, instruction, nil)
	if err != nil {
		return sig, res, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	c.log.Debug("--> Executed instruction", "instruction", name, "sig", sig)
	return sig, res, nil
}

func (c *Client) InitMarketplace(ctx context.Context, config InitMarketplaceInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildInitMarketplaceInstruction(c.executor.programID, config)
	return c.execute(ctx, "init marketplace", instruction, err)
}

func (c *Client) EditMarketplace(ctx context.Context, config EditMarketplaceInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildEditMarketplaceInstruction(c.executor.programID, config)
	return c.execute(ctx, "edit marketplace", instruction, err)
}

func (c *Client) InitBountyVault(ctx context.Context, config InitBountyVaultInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildInitBountyVaultInstruction(c.executor.programID, config)
	return c.execute(ctx, "init bounty vault", instruction, err)
}

func (c *Client) InitProduct(ctx context.Context, config InitProductInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildInitProductInstruction(c.executor.programID, config)
	return c.execute(ctx, "init product", instruction, err)
}

func (c *Client) EditProduct(ctx context.Context, config EditProductInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildEditProductInstruction(c.executor.programID, config)
	return c.execute(ctx, "edit product", instruction, err)
}

func (c *Client) DeleteProduct(ctx context.Context, config DeleteProductInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildDeleteProductInstruction(c.executor.programID, config)
	return c.execute(ctx, "delete product", instruction, err)
}

func (c *Client) InitReward(ctx context.Context, config RewardInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildInitRewardInstruction(c.executor.programID, config)
	return c.execute(ctx, "init reward", instruction, err)
}

func (c *Client) InitRewardVault(ctx context.Context, config RewardInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildInitRewardVaultInstruction(c.executor.programID, config)
	return c.execute(ctx, "init reward vault", instruction, err)
}

func (c *Client) WithdrawReward(ctx context.Context, config WithdrawRewardInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildWithdrawRewardInstruction(c.executor.programID, config)
	return c.execute(ctx, "withdraw reward", instruction, err)
}

func (c *Client) RegisterBuy(ctx context.Context, config RegisterBuyInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildRegisterBuyInstruction(c.executor.programID, config)
	return c.execute(ctx, "register buy", instruction, err)
}

func (c *Client) RegisterRewardBuy(ctx context.Context, config RegisterBuyInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildRegisterRewardBuyInstruction(c.executor.programID, config)
	return c.execute(ctx, "register reward buy", instruction, err)
}

func (c *Client) CreateGovernance(ctx context.Context, config CreateGovernanceInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildCreateGovernanceInstruction(c.executor.programID, config)
	return c.execute(ctx, "create governance", instruction, err)
}

func (c *Client) EditPoints(ctx context.Context, config EditPointsInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildEditPointsInstruction(c.executor.programID, config)
	return c.execute(ctx, "edit points", instruction, err)
}

func (c *Client) InitBonus(ctx context.Context, config InitBonusInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildInitBonusInstruction(c.executor.programID, config)
	return c.execute(ctx, "init bonus", instruction, err)
}

func (c *Client) RegisterPromoBuy(ctx context.Context, config RegisterPromoBuyInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildRegisterPromoBuyInstruction(c.executor.programID, config)
	return c.execute(ctx, "register promo buy", instruction, err)
}

func (c *Client) WithdrawBonus(ctx context.Context, config WithdrawBonusInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildWithdrawBonusInstruction(c.executor.programID, config)
	return c.execute(ctx, "withdraw bonus", instruction, err)
}

func (c *Client) RegisterEscrowBuy(ctx context.Context, config RegisterEscrowBuyInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildRegisterEscrowBuyInstruction(c.executor.programID, config)
	return c.execute(ctx, "register escrow buy", instruction, err)
}

func (c *Client) Refund(ctx context.Context, config RefundInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildRefundInstruction(c.executor.programID, config)
	return c.execute(ctx, "refund", instruction, err)
}

func (c *Client) WithdrawFunds(ctx context.Context, config WithdrawFundsInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildWithdrawFundsInstruction(c.executor.programID, config)
	return c.execute(ctx, "withdraw funds", instruction, err)
}

func (c *Client) RequestAccess(ctx context.Context, config RequestAccessInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildRequestAccessInstruction(c.executor.programID, config)
	return c.execute(ctx, "request access", instruction, err)
}

func (c *Client) AcceptAccess(ctx context.Context, config GrantAccessInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildAcceptAccessInstruction(c.executor.programID, config)
	return c.execute(ctx, "accept access", instruction, err)
}

func (c *Client) AirdropAccess(ctx context.Context, config GrantAccessInstructionConfig) (solana.Signature, *solanarpc.GetTransactionResult, error) {
	instruction, err := BuildAirdropAccessInstruction(c.executor.programID, config)
	return c.execute(ctx, "airdrop access", instruction, err)
}

// Buy fetches the product and its marketplace and registers a direct
// purchase by the client's signer. With reward set it uses the reward-only
// entry point, which fails when the promotion is closed.
func (c *Client) Buy(ctx context.Context, product solana.PublicKey, quantity uint64, reward bool) (solana.Signature, error) {
	signer, err := c.signerKey()
	if err != nil {
		return solana.Signature{}, err
	}
	p, err := c.GetProduct(ctx, product)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get product: %w", err)
	}
	m, err := c.GetMarketplace(ctx, p.Marketplace)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get marketplace: %w", err)
	}

	config := RegisterBuyInstructionConfig{
		Signer:           signer,
		Marketplace:      p.Marketplace,
		MarketplaceState: m,
		Product:          product,
		ProductState:     p,
		Quantity:         quantity,
	}
	if reward {
		sig, _, err := c.RegisterRewardBuy(ctx, config)
		return sig, err
	}
	sig, _, err := c.RegisterBuy(ctx, config)
	return sig, err
}

// EscrowBuy registers an escrowed purchase stamped with timestamp and returns
// the payment address.
func (c *Client) EscrowBuy(ctx context.Context, product solana.PublicKey, quantity, timestamp uint64) (solana.PublicKey, solana.Signature, error) {
	signer, err := c.signerKey()
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, err
	}
	p, err := c.GetProduct(ctx, product)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to get product: %w", err)
	}
	payment, _, err := DerivePaymentPDA(c.executor.programID, p.ProductMint, signer, timestamp)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to derive payment PDA: %w", err)
	}
	sig, _, err := c.RegisterEscrowBuy(ctx, RegisterEscrowBuyInstructionConfig{
		Signer:       signer,
		Marketplace:  p.Marketplace,
		Product:      product,
		ProductState: p,
		Timestamp:    timestamp,
		Quantity:     quantity,
	})
	return payment, sig, err
}

// RefundPayment returns an escrowed payment to the client's signer.
func (c *Client) RefundPayment(ctx context.Context, payment solana.PublicKey) (solana.Signature, error) {
	signer, err := c.signerKey()
	if err != nil {
		return solana.Signature{}, err
	}
	pay, err := c.GetPayment(ctx, payment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get payment: %w", err)
	}
	sig, _, err := c.Refund(ctx, RefundInstructionConfig{Signer: signer, Payment: payment, PaymentState: pay})
	return sig, err
}

// WithdrawPayment releases an escrowed payment to the client's signer, the
// seller.
func (c *Client) WithdrawPayment(ctx context.Context, payment solana.PublicKey, pay *Payment) (solana.Signature, error) {
	signer, err := c.signerKey()
	if err != nil {
		return solana.Signature{}, err
	}
	if pay == nil {
		if pay, err = c.GetPayment(ctx, payment); err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get payment: %w", err)
		}
	}
	m, err := c.GetMarketplace(ctx, pay.Marketplace)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get marketplace: %w", err)
	}
	sig, _, err := c.WithdrawFunds(ctx, WithdrawFundsInstructionConfig{
		Signer:               signer,
		Payment:              payment,
		PaymentState:         pay,
		MarketplaceAuthority: m.Authority,
	})
	return sig, err
}
