// Package simulator replays a scripted auction against an in-process ledger
// with the reference escrow and payment collaborators.
package simulator

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Scenario is the YAML document the simulator runs:
//
//	auction:
//	  asset: nft-1
//	  seller: "0x000000000000000000000000000000000000005e"
//	  reserve: "1"
//	  commit_duration: 1h
//	  reveal_duration: 1h
//	bidders:
//	  - address: "0x00000000000000000000000000000000000000a1"
//	    bid: "3"
//	    collateral: "4"
//	    reveal: true
type Scenario struct {
	Auction AuctionSetup `mapstructure:"auction"`
	Bidders []BidderScript `mapstructure:"bidders" validate:"dive"`

	// FeeRate and FeeRecipient override the process config when set.
	FeeRate      string `mapstructure:"fee_rate" validate:"omitempty,numeric"`
	FeeRecipient string `mapstructure:"fee_recipient" validate:"omitempty,eth_addr"`
}

type AuctionSetup struct {
	Asset          string        `mapstructure:"asset" validate:"required"`
	Seller         string        `mapstructure:"seller" validate:"required,eth_addr"`
	Reserve        string        `mapstructure:"reserve" validate:"required"`
	CommitDuration time.Duration `mapstructure:"commit_duration" validate:"gt=0"`
	RevealDuration time.Duration `mapstructure:"reveal_duration" validate:"gt=0"`
}

type BidderScript struct {
	Address    string `mapstructure:"address" validate:"required,eth_addr"`
	Bid        string `mapstructure:"bid" validate:"required"`
	Collateral string `mapstructure:"collateral" validate:"required"`
	Reveal     bool   `mapstructure:"reveal"`
	// Reclaim makes the bidder pull their stake back after settlement.
	Reclaim bool `mapstructure:"reclaim"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("auction.commit_duration", "1h")
	v.SetDefault("auction.reveal_duration", "1h")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks field shapes; amounts are parsed when the scenario runs.
func (s *Scenario) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}
	seen := make(map[common.Address]bool, len(s.Bidders))
	for _, b := range s.Bidders {
		addr := common.HexToAddress(b.Address)
		if seen[addr] {
			return fmt.Errorf("invalid scenario: bidder %s listed twice", addr.Hex())
		}
		seen[addr] = true
	}
	return nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}
