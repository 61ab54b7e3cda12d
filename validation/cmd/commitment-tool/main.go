package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cloudx-io/sealedauction/core"
)

// newPlainLogger writes bare messages to stdout, without timestamps or
// levels, which suits CLI output.
func newPlainLogger() *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{MessageKey: "msg"})
	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zapcore.DebugLevel))
}

var logger = newPlainLogger()

type sealedBid struct {
	Bid        string `json:"bid"`
	BaseUnits  string `json:"base_units"`
	Salt       string `json:"salt"`
	Commitment string `json:"commitment"`
}

func main() {
	var (
		bidInput     = flag.String("bid", "", "Bid amount in whole units, up to 18 decimals (required)")
		saltInput    = flag.String("salt", "", "32-byte hex salt; a random one is generated when empty")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		help         = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()
	defer logger.Sync() //nolint:errcheck

	if *help || *bidInput == "" {
		showUsage()
		if *bidInput == "" && !*help {
			os.Exit(1)
		}
		os.Exit(0)
	}

	sealed, err := seal(*bidInput, *saltInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		data, err := json.MarshalIndent(sealed, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			os.Exit(2)
		}
		logger.Info(string(data))
		return
	}

	logger.Info(fmt.Sprintf("Bid:         %s", sealed.Bid))
	logger.Info(fmt.Sprintf("Base units:  %s", sealed.BaseUnits))
	logger.Info(fmt.Sprintf("Salt:        %s", sealed.Salt))
	logger.Info(fmt.Sprintf("Commitment:  %s", sealed.Commitment))
	logger.Info("")
	logger.Info("Keep the bid and salt: both are needed to reveal.")
}

func seal(bidInput, saltInput string) (*sealedBid, error) {
	bid, err := decimal.NewFromString(bidInput)
	if err != nil {
		return nil, fmt.Errorf("invalid bid %q: %w", bidInput, err)
	}
	units, err := core.ToBaseUnits(bid)
	if err != nil {
		return nil, err
	}

	var salt common.Hash
	if saltInput == "" {
		salt, err = core.NewSalt()
		if err != nil {
			return nil, err
		}
	} else {
		raw := common.FromHex(saltInput)
		if len(raw) != common.HashLength {
			return nil, fmt.Errorf("salt must be %d bytes, got %d", common.HashLength, len(raw))
		}
		salt = common.BytesToHash(raw)
	}

	commitment, err := core.ComputeCommitment(bid, salt)
	if err != nil {
		return nil, err
	}
	return &sealedBid{
		Bid:        bid.String(),
		BaseUnits:  units.Dec(),
		Salt:       salt.Hex(),
		Commitment: commitment.Hex(),
	}, nil
}

func showUsage() {
	logger.Info("Sealed Bid Commitment Tool")
	logger.Info("")
	logger.Info("Computes the commitment hash to submit during the commit phase.")
	logger.Info("")
	logger.Info("Usage:")
	logger.Info("  commitment-tool --bid <amount> [--salt <hex>] [options]")
	logger.Info("")
	logger.Info("Required Flags:")
	logger.Info("  --bid <amount>                    Bid in whole units, e.g. 2.5")
	logger.Info("")
	logger.Info("Optional Flags:")
	logger.Info("  --salt <hex>                      32-byte salt (default: random)")
	logger.Info("  --format <text|json>              Output format (default: text)")
	logger.Info("  --help                            Show this help message")
	logger.Info("")
	logger.Info("Commitment:")
	logger.Info("  keccak256(uint256(bid * 10^18) || salt)")
	logger.Info("")
	logger.Info("Exit Codes:")
	logger.Info("  0 - Commitment computed")
	logger.Info("  1 - Missing input")
	logger.Info("  2 - Invalid input")
}
