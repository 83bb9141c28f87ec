package config

const (
	// BrickProgramID is the deployed program address. The same address is used
	// on every cluster.
	BrickProgramID = "brick5DMMWvdRZQU9tsnyeHBNsY9hbyH2NhFRH1wjkB"

	// Mainnet constants.
	MainnetLedgerRPCURL = "https://api.mainnet-beta.solana.com"

	// Testnet constants.
	TestnetLedgerRPCURL = "https://api.testnet.solana.com"

	// Devnet constants.
	DevnetLedgerRPCURL = "https://api.devnet.solana.com"

	// Localnet constants.
	LocalnetLedgerRPCURL = "http://127.0.0.1:8899"
)

const (
	EnvLedgerRPCURL = "BRICK_LEDGER_RPC_URL"
	EnvProgramID    = "BRICK_PROGRAM_ID"
	EnvKeypair      = "BRICK_KEYPAIR"
)
