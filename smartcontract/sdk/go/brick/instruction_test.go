package brick_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func TestSDK_Brick_BuildInitMarketplaceInstruction(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	rewardMint := solana.NewWallet().PublicKey()

	args := brick.MarketplaceArgs{
		FeeBps:          250,
		FeeReductionBps: 100,
		FeePayer:        brick.FeePayerSeller,
		SellerRewardBps: 100,
		BuyerRewardBps:  50,
		RewardsEnabled:  true,
		Permissionless:  true,
	}
	ix, err := brick.BuildInitMarketplaceInstruction(programID, brick.InitMarketplaceInstructionConfig{
		Authority:  authority,
		RewardMint: rewardMint,
		Args:       args,
	})
	require.NoError(t, err)
	require.Equal(t, programID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, uint8(brick.InitMarketplaceInstructionIndex), data[0])

	var decoded brick.MarketplaceArgs
	require.NoError(t, borsh.Deserialize(&decoded, data[1:]))
	require.Equal(t, args, decoded)

	accounts := ix.Accounts()
	require.Len(t, accounts, 9)
	require.Equal(t, authority, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)

	marketplace, _, err := brick.DeriveMarketplacePDA(programID, authority)
	require.NoError(t, err)
	require.Equal(t, marketplace, accounts[1].PublicKey)

	null, err := brick.NullSentinel(programID)
	require.NoError(t, err)
	require.Equal(t, null, accounts[4].PublicKey, "discount mint defaults to the null sentinel")
	require.Equal(t, null, accounts[5].PublicKey, "trigger mint defaults to the null sentinel")
	require.Equal(t, solana.TokenProgramID, accounts[8].PublicKey)
}

func TestSDK_Brick_MarketplaceArgs_ZeroFeePayer(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	ix, err := brick.BuildInitMarketplaceInstruction(programID, brick.InitMarketplaceInstructionConfig{
		Authority:  solana.NewWallet().PublicKey(),
		RewardMint: solana.NewWallet().PublicKey(),
		Args:       brick.MarketplaceArgs{FeeBps: 250},
	})
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	var decoded brick.MarketplaceArgs
	require.NoError(t, borsh.Deserialize(&decoded, data[1:]))
	require.Equal(t, brick.FeePayerBuyer, decoded.FeePayer)
	require.Equal(t, "buyer", decoded.FeePayer.String())
	// Tag byte, then FeeBps and FeeReductionBps ahead of the fee payer.
	require.Equal(t, byte(0), data[5])
}

func TestSDK_Brick_BuildInstruction_Validation(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()

	_, err := brick.BuildInitMarketplaceInstruction(programID, brick.InitMarketplaceInstructionConfig{})
	require.ErrorContains(t, err, "authority public key is required")

	_, err = brick.BuildInitProductInstruction(programID, brick.InitProductInstructionConfig{
		Signer:      solana.NewWallet().PublicKey(),
		Marketplace: solana.NewWallet().PublicKey(),
		ProductID:   string(make([]byte, 65)),
		PaymentMint: solana.NewWallet().PublicKey(),
	})
	require.ErrorContains(t, err, "exceeds max")

	_, err = brick.BuildRegisterBuyInstruction(programID, brick.RegisterBuyInstructionConfig{
		Signer:      solana.NewWallet().PublicKey(),
		Marketplace: solana.NewWallet().PublicKey(),
		Product:     solana.NewWallet().PublicKey(),
	})
	require.ErrorContains(t, err, "marketplace state is required")
}

func TestSDK_Brick_BuildRegisterBuyInstruction_OptionalAccounts(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	signer := solana.NewWallet().PublicKey()
	marketplace := solana.NewWallet().PublicKey()
	product := solana.NewWallet().PublicKey()

	m := &brick.Marketplace{Authority: solana.NewWallet().PublicKey()}
	p := &brick.Product{
		Authority:   solana.NewWallet().PublicKey(),
		ProductMint: solana.NewWallet().PublicKey(),
		PaymentMint: brick.NativeMint,
	}

	ix, err := brick.BuildRegisterBuyInstruction(programID, brick.RegisterBuyInstructionConfig{
		Signer:           signer,
		Marketplace:      marketplace,
		MarketplaceState: m,
		Product:          product,
		ProductState:     p,
		Quantity:         3,
	})
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 20)
	require.Equal(t, p.Authority, accounts[5].PublicKey)
	require.Equal(t, m.Authority, accounts[6].PublicKey)

	// Native payment, no token delivery and rewards disabled: only the
	// purchase counter is passed among the optional accounts.
	for i := 7; i <= 17; i++ {
		if i == 11 {
			continue
		}
		require.Equal(t, programID, accounts[i].PublicKey, "account %d should be the placeholder", i)
	}
	counter, _, err := brick.DerivePurchaseCounterPDA(programID, signer, product)
	require.NoError(t, err)
	require.Equal(t, counter, accounts[11].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, uint8(brick.RegisterBuyInstructionIndex), data[0])
	var args brick.BuyArgs
	require.NoError(t, borsh.Deserialize(&args, data[1:]))
	require.Equal(t, uint64(3), args.Quantity)

	// Token payment with delivery and rewards fills every slot.
	m.DeliverToken = true
	m.Rewards = brick.RewardsConfig{RewardMint: solana.NewWallet().PublicKey(), RewardsEnabled: true}
	p.PaymentMint = solana.NewWallet().PublicKey()
	ix, err = brick.BuildRegisterRewardBuyInstruction(programID, brick.RegisterBuyInstructionConfig{
		Signer:           signer,
		Marketplace:      marketplace,
		MarketplaceState: m,
		Product:          product,
		ProductState:     p,
		Quantity:         1,
	})
	require.NoError(t, err)
	accounts = ix.Accounts()
	for i := 7; i <= 17; i++ {
		if i == 11 {
			require.Equal(t, programID, accounts[i].PublicKey)
			continue
		}
		require.NotEqual(t, programID, accounts[i].PublicKey, "account %d should be set", i)
	}
	buyerVault, _, err := solana.FindAssociatedTokenAddress(signer, p.PaymentMint)
	require.NoError(t, err)
	require.Equal(t, buyerVault, accounts[7].PublicKey)

	data, err = ix.Data()
	require.NoError(t, err)
	require.Equal(t, uint8(brick.RegisterRewardBuyInstructionIndex), data[0])
}

func TestSDK_Brick_BuildRegisterEscrowBuyInstruction(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	signer := solana.NewWallet().PublicKey()
	p := &brick.Product{
		ProductMint: solana.NewWallet().PublicKey(),
		PaymentMint: solana.NewWallet().PublicKey(),
	}

	ix, err := brick.BuildRegisterEscrowBuyInstruction(programID, brick.RegisterEscrowBuyInstructionConfig{
		Signer:       signer,
		Marketplace:  solana.NewWallet().PublicKey(),
		Product:      solana.NewWallet().PublicKey(),
		ProductState: p,
		Timestamp:    1_700_000_000,
		Quantity:     1,
	})
	require.NoError(t, err)

	payment, _, err := brick.DerivePaymentPDA(programID, p.ProductMint, signer, 1_700_000_000)
	require.NoError(t, err)
	vault, _, err := brick.DerivePaymentVaultPDA(programID, payment)
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Equal(t, payment, accounts[4].PublicKey)
	require.Equal(t, vault, accounts[5].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	var args brick.EscrowBuyArgs
	require.NoError(t, borsh.Deserialize(&args, data[1:]))
	require.Equal(t, brick.EscrowBuyArgs{Timestamp: 1_700_000_000, Quantity: 1}, args)
}
