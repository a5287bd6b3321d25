// main.go - poold, the shielded pool daemon.
//
// Usage:
//   poold setup --config poold.json      generate Groth16 keys for both statements
//   poold serve --config poold.json      run the ledger HTTP server
//
// The daemon never sees secrets: clients prove deposits and withdrawals
// locally against the published proving keys and submit only the proof plus
// public inputs.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	gnarkLogger "github.com/consensys/gnark/logger"
	"github.com/urfave/cli/v2"

	"shieldedpool/internal/logging"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
	"shieldedpool/internal/zkp"
)

const version = "0.1.0"

func main() {
	gnarkLogger.Set(*logging.Logger())
	app := cli.App{
		Name:    "poold",
		Usage:   "shielded pool ledger daemon",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file path", Value: "poold.json"},
			&cli.BoolFlag{Name: "json-logging", Usage: "enable JSON logging"},
		},
		Commands: []*cli.Command{
			{
				Name:   "setup",
				Usage:  "compile both statements and generate or load the Groth16 keys",
				Action: runSetup,
			},
			{
				Name:   "serve",
				Usage:  "run the ledger HTTP server",
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Logger().Fatal().Err(err).Msg("poold failed")
	}
}

func loadConfig(c *cli.Context) (*Config, error) {
	if c.Bool("json-logging") {
		logging.SetJSONOutput()
	}
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if cfg.JSONLogging {
		logging.SetJSONOutput()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadProvingSystems compiles both statements at the configured depth and
// loads the keys from the key directory, generating them on first run.
func loadProvingSystems(cfg *Config) (*zkp.ProvingSystem, *zkp.ProvingSystem, error) {
	if err := os.MkdirAll(cfg.KeyDir, 0755); err != nil {
		return nil, nil, err
	}

	depPK, depVK := cfg.depositKeyPaths()
	logging.Logger().Info().Int("depth", cfg.TreeDepth).Msg("setting up deposit statement")
	depPS, err := zkp.SetupOrLoad(deposit.NewCircuit(cfg.TreeDepth), depPK, depVK)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit statement setup failed: %w", err)
	}

	wdPK, wdVK := cfg.withdrawKeyPaths()
	logging.Logger().Info().Int("depth", cfg.TreeDepth).Msg("setting up withdraw statement")
	wdPS, err := zkp.SetupOrLoad(withdraw.NewCircuit(cfg.TreeDepth), wdPK, wdVK)
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw statement setup failed: %w", err)
	}
	return depPS, wdPS, nil
}

func runSetup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if _, _, err := loadProvingSystems(cfg); err != nil {
		return err
	}
	logging.Logger().Info().Str("keyDir", cfg.KeyDir).Msg("keys ready")
	return nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	depPS, wdPS, err := loadProvingSystems(cfg)
	if err != nil {
		return err
	}
	verifier := &pool.GrothVerifier{
		Depth:      cfg.TreeDepth,
		DepositVK:  depPS.VK,
		WithdrawVK: wdPS.VK,
	}

	var ledger *pool.Ledger
	if l, err := pool.LoadLedgerFromFile(cfg.LedgerPath, verifier); err == nil {
		if l.Depth() != cfg.TreeDepth {
			return fmt.Errorf("ledger snapshot depth %d does not match configured depth %d", l.Depth(), cfg.TreeDepth)
		}
		ledger = l
		logging.Logger().Info().
			Str("root", ledger.Root().String()).
			Uint64("nextIndex", ledger.NextIndex()).
			Msg("ledger restored from snapshot")
	} else {
		ledger = pool.NewLedger(cfg.TreeDepth, verifier)
		logging.Logger().Info().Int("depth", cfg.TreeDepth).Msg("starting with empty ledger")
	}

	health := NewHealthChecker(version)
	health.RegisterComponent("ledger-storage", nil)
	health.RegisterComponent("key-storage", func() error {
		pkPath, _ := cfg.depositKeyPaths()
		_, err := os.Stat(pkPath)
		return err
	})

	limiter := NewClientRateLimiter(cfg.RateLimitBurst, cfg.RateLimitPerSecond, time.Second)
	srv := NewServer(ledger, cfg.LedgerPath, health, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := srv.Serve(ctx, cfg.ListenAddress); err != nil {
		return err
	}

	// Final snapshot on shutdown.
	if err := ledger.SaveToFile(cfg.LedgerPath); err != nil {
		return fmt.Errorf("final ledger snapshot failed: %w", err)
	}
	logging.Logger().Info().Msg("poold stopped")
	return nil
}
