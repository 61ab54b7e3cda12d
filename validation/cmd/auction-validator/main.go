package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"github.com/cloudx-io/sealedauction/ledgerapi"
	"github.com/cloudx-io/sealedauction/validation"
)

func main() {
	// Define CLI flags
	var (
		bundleInput   = flag.String("bundle", "", "Settlement bundle JSON (file path or inline JSON)")
		publicKeyPath = flag.String("public-key", "", "Path to the ledger public key PEM (overrides the key in the bundle)")
		bidderInput   = flag.String("bidder", "", "Your bidder address (0x...)")
		bidInput      = flag.String("bid", "", "The bid you sealed, in whole units")
		saltInput     = flag.String("salt", "", "The 32-byte salt you sealed the bid with (0x...)")
		feeRateInput  = flag.String("fee-rate", "", "Fee rate you expect was applied, e.g. 0.025")
		outputFormat  = flag.String("format", "text", "Output format: text or json")
		help          = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	// Show help
	if *help {
		showUsage()
		os.Exit(0)
	}

	if *bundleInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --bundle is required\n")
		os.Exit(1)
	}

	bundleJSON, err := readJSONInput(*bundleInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading bundle: %v\n", err)
		os.Exit(2)
	}

	input, err := buildValidationInput(bundleJSON, *publicKeyPath, *bidderInput, *bidInput, *saltInput, *feeRateInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting validation data: %v\n", err)
		os.Exit(2)
	}

	// Validate using library
	result, err := validation.ValidateSettlement(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	// Output results
	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	// Exit with appropriate code
	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Sealed Auction Settlement Validator")
	fmt.Println()
	fmt.Println("Checks a signed settlement receipt against the auction snapshot it commits to.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  auction-validator --bundle <json> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --bundle <json>                   Settlement bundle written by the ledger")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --public-key <path>               Ledger public key PEM obtained out of band")
	fmt.Println("  --bidder <address>                Your bidder address")
	fmt.Println("  --bid <amount>                    The bid you sealed")
	fmt.Println("  --salt <hex>                      The salt you sealed it with")
	fmt.Println("  --fee-rate <rate>                 Expected fee rate")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Bundle Format:")
	fmt.Println("  {")
	fmt.Println("    \"snapshot_cbor\": \"pGdBdWN0aW9u...\",")
	fmt.Println("    \"receipt_cose_base64\": \"hEOhASagWQ...\",")
	fmt.Println("    \"public_key_pem\": \"-----BEGIN PUBLIC KEY-----...\"")
	fmt.Println("  }")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Check the outcome only")
	fmt.Println("  auction-validator --bundle settlement.json")
	fmt.Println()
	fmt.Println("  # Also check your own commitment and the fee")
	fmt.Println("  auction-validator \\")
	fmt.Println("    --bundle settlement.json \\")
	fmt.Println("    --public-key ledger.pem \\")
	fmt.Println("    --bidder 0x00000000000000000000000000000000000000b2 \\")
	fmt.Println("    --bid 2 --salt 0x5f3c...e1 --fee-rate 0.025")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readJSONInput(input string) ([]byte, error) {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	// Treat as inline JSON
	return []byte(input), nil
}

func buildValidationInput(bundleJSON []byte, publicKeyPath, bidder, bid, salt, feeRate string) (*validation.SettlementValidationInput, error) {
	var bundle ledgerapi.SettlementBundle
	if err := json.Unmarshal(bundleJSON, &bundle); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if len(bundle.SnapshotCBOR) == 0 || bundle.ReceiptCOSEBase64 == "" {
		return nil, fmt.Errorf("bundle is missing snapshot_cbor or receipt_cose_base64")
	}

	input := &validation.SettlementValidationInput{Bundle: bundle}

	if publicKeyPath != "" {
		keyPEM, err := os.ReadFile(publicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		input.PublicKeyPEM = string(keyPEM)
	}

	if bid != "" || salt != "" {
		if bid == "" || salt == "" || bidder == "" {
			return nil, fmt.Errorf("--bidder, --bid and --salt must be given together")
		}
		if !common.IsHexAddress(bidder) {
			return nil, fmt.Errorf("invalid bidder address %q", bidder)
		}
		amount, err := decimal.NewFromString(bid)
		if err != nil {
			return nil, fmt.Errorf("invalid bid %q: %w", bid, err)
		}
		saltBytes, err := parseSalt(salt)
		if err != nil {
			return nil, err
		}
		input.Bidder = common.HexToAddress(bidder)
		input.Bid = &amount
		input.Salt = &saltBytes
	}

	if feeRate != "" {
		rate, err := decimal.NewFromString(feeRate)
		if err != nil {
			return nil, fmt.Errorf("invalid fee rate %q: %w", feeRate, err)
		}
		input.FeeRate = &rate
	}

	return input, nil
}

func parseSalt(s string) (common.Hash, error) {
	raw := common.FromHex(s)
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("salt must be %d bytes, got %d", common.HashLength, len(raw))
	}
	return common.BytesToHash(raw), nil
}

func outputText(result *validation.SettlementValidationResult) {
	fmt.Println("Sealed Auction Settlement Validator")
	fmt.Println("===================================")
	fmt.Println()

	fmt.Println("Summary:")
	fmt.Printf("  Signature Valid:         %v\n", result.SignatureValid)
	fmt.Printf("  Snapshot Hash Valid:     %v\n", result.SnapshotHashValid)
	fmt.Printf("  Outcome Valid:           %v\n", result.OutcomeValid)
	fmt.Printf("  Fee Split Valid:         %v\n", result.FeeSplitValid)
	fmt.Printf("  Commitment Valid:        %v\n", result.CommitmentValid)
	fmt.Printf("  Conservation Valid:      %v\n", result.ConservationValid)

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("===================================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
		fmt.Println("Exit Code: 0")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
		fmt.Println("Exit Code: 1")
	}
}

func outputJSON(result *validation.SettlementValidationResult) {
	output := map[string]any{
		"valid":               result.IsValid(),
		"signature_valid":     result.SignatureValid,
		"snapshot_hash_valid": result.SnapshotHashValid,
		"outcome_valid":       result.OutcomeValid,
		"fee_split_valid":     result.FeeSplitValid,
		"commitment_valid":    result.CommitmentValid,
		"conservation_valid":  result.ConservationValid,
		"details":             result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
