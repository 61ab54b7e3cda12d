package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/config"
	"github.com/cloudx-io/sealedauction/logging"
	"github.com/cloudx-io/sealedauction/metrics"
	"github.com/cloudx-io/sealedauction/simulator"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Scenario YAML file (required)")
		configPath   = flag.String("config", "", "Ledger config YAML; defaults and SEALEDAUCTION_* env apply when empty")
		bundlePath   = flag.String("out", "settlement.json", "Where to write the signed settlement bundle")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		help         = flag.Bool("help", false, "Show usage information")
	)
	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}
	if *scenarioPath == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --scenario is required\n")
		os.Exit(1)
	}

	if err := run(*scenarioPath, *configPath, *bundlePath, *outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func run(scenarioPath, configPath, bundlePath, format string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	recorder, err := metrics.New(cfg.Statsd.Address, cfg.Statsd.Namespace, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("failed to close statsd client", zap.Error(err))
		}
	}()

	scenario, err := simulator.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := simulator.Run(ctx, scenario, simulator.Options{
		Ledger:  cfg.Ledger,
		Workers: cfg.Keeper.Workers,
		Logger:  logger,
		Metrics: recorder,
	})
	if err != nil {
		return err
	}

	bundle, err := json.MarshalIndent(result.Bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.WriteFile(bundlePath, bundle, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	logger.Info("settlement bundle written", zap.String("path", bundlePath))

	if format == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	outputText(result, bundlePath)
	return nil
}

func outputText(result *simulator.Result, bundlePath string) {
	s := result.Settlement
	fmt.Println("Sealed Auction Simulation")
	fmt.Println("=========================")
	fmt.Println()
	fmt.Printf("  Auction:         %s\n", result.AuctionID)
	if s.Sold {
		fmt.Printf("  Winner:          %s\n", s.Winner.Hex())
		fmt.Printf("  Clearing Price:  %s\n", s.ClearingPrice)
		fmt.Printf("  Fee:             %s\n", s.Fee)
		fmt.Printf("  Seller Proceeds: %s\n", s.Proceeds)
		fmt.Printf("  Winner Refund:   %s\n", s.WinnerRefund)
	} else {
		fmt.Println("  No sale: reserve not met")
	}
	fmt.Printf("  Asset Owner:     %s\n", result.AssetOwner.Hex())

	fmt.Println()
	fmt.Println("Bidders:")
	for _, b := range result.Bidders {
		fmt.Printf("  - %s committed=%v revealed=%v received=%s\n", b.Address.Hex(), b.Committed, b.Revealed, b.Received)
		if b.Committed {
			fmt.Printf("      salt %s\n", b.Salt.Hex())
		}
		if b.Rejection != "" {
			fmt.Printf("      rejected: %s\n", b.Rejection)
		}
	}

	fmt.Println()
	fmt.Println("Balances:")
	for account, balance := range result.Balances {
		fmt.Printf("  %s  %s\n", account.Hex(), balance)
	}

	fmt.Println()
	fmt.Printf("Bundle written to %s; check it with auction-validator --bundle %s\n", bundlePath, bundlePath)
}

func showUsage() {
	fmt.Println("Sealed Auction Simulator")
	fmt.Println()
	fmt.Println("Runs a scripted sealed-bid auction against an in-process ledger and")
	fmt.Println("writes the signed settlement bundle.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  auction-sim --scenario <yaml> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --scenario <path>                 Scenario YAML")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --config <path>                   Ledger config YAML")
	fmt.Println("  --out <path>                      Bundle output (default: settlement.json)")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Simulation completed")
	fmt.Println("  1 - Missing input")
	fmt.Println("  2 - Invalid input or runtime error")
}
