package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malbeclabs/brick/config"
	"github.com/malbeclabs/brick/controlplane/escrow-keeper/internal/keeper"
	"github.com/malbeclabs/brick/controlplane/escrow-keeper/internal/metrics"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
	"github.com/malbeclabs/brick/smartcontract/sdk/go/ledgerrpc"
)

const (
	defaultInterval    = 1 * time.Minute
	defaultConcurrency = 4
)

var (
	env           = flag.String("env", "", "the environment to run the keeper in (localnet, devnet, testnet, mainnet-beta)")
	ledgerRPCURL  = flag.String("ledger-rpc-url", "", "the url of the ledger rpc")
	programID     = flag.String("program-id", "", "the id of the brick program")
	keypairPath   = flag.String("keypair", "", "the path to the seller keypair, or a base58 secret")
	interval      = flag.Duration("interval", defaultInterval, "the interval between payment sweeps")
	concurrency   = flag.Int("concurrency", defaultConcurrency, "the number of withdrawals to run in parallel")
	verbose       = flag.Bool("verbose", false, "enable verbose logging")
	showVersion   = flag.Bool("version", false, "Print the version of the escrow-keeper and exit")
	metricsEnable = flag.Bool("metrics-enable", false, "Enable prometheus metrics")
	metricsAddr   = flag.String("metrics-addr", ":8080", "Address to listen on for prometheus metrics")

	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
	}))

	if err := config.LoadDotEnv(); err != nil {
		log.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}

	// Validate required flags.
	if *env == "" {
		if *ledgerRPCURL == "" {
			log.Error("Missing required flag", "flag", "ledger-rpc-url")
			flag.Usage()
			os.Exit(1)
		}
		if *programID == "" {
			log.Error("Missing required flag", "flag", "program-id")
			flag.Usage()
			os.Exit(1)
		}
	} else {
		networkConfig, err := config.NetworkConfigForEnv(*env)
		if err != nil {
			log.Error("Failed to get network config", "error", err)
			flag.Usage()
			os.Exit(1)
		}
		if *ledgerRPCURL == "" {
			*ledgerRPCURL = networkConfig.LedgerRPCURL
		}
		if *programID == "" {
			*programID = networkConfig.ProgramID.String()
		}
	}

	keypair, err := config.LoadKeypair(*keypairPath)
	if err != nil {
		log.Error("Failed to load seller keypair", "error", err)
		flag.Usage()
		os.Exit(1)
	}

	programPK, err := solana.PublicKeyFromBase58(*programID)
	if err != nil {
		log.Error("Failed to parse program ID", "error", err)
		os.Exit(1)
	}

	// Set up prometheus metrics server if enabled.
	if *metricsEnable {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", *metricsAddr)
			if err != nil {
				log.Error("Failed to start prometheus metrics server listener", "error", err)
				return
			}
			log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("Failed to start prometheus metrics server", "error", err)
			}
		}()
	}

	log.Info("Starting escrow keeper",
		"version", version,
		"ledgerRPCURL", *ledgerRPCURL,
		"programID", programPK,
		"seller", keypair.PublicKey(),
		"interval", *interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rpcClient := ledgerrpc.New(*ledgerRPCURL, nil)
	client := brick.New(log, rpcClient, &keypair, programPK)

	k, err := keeper.New(keeper.Config{
		Logger:      log,
		Client:      client,
		Seller:      keypair.PublicKey(),
		Interval:    *interval,
		Concurrency: *concurrency,
	})
	if err != nil {
		log.Error("Failed to create escrow keeper", "error", err)
		os.Exit(1)
	}

	if err := k.Run(ctx); err != nil {
		log.Error("Escrow keeper exited with error", "error", err)
		os.Exit(1)
	}
}
