// Package config loads ledger settings from a YAML file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cloudx-io/sealedauction/core"
)

// EnvPrefix is prepended to every environment override, e.g.
// SEALEDAUCTION_LEDGER_FEE_RATE=0.025.
const EnvPrefix = "SEALEDAUCTION"

// Config holds everything needed to wire a ledger process.
type Config struct {
	Ledger LedgerConfig
	Keeper KeeperConfig
	Log    LogConfig
	Statsd StatsdConfig
}

// LedgerConfig bounds auction windows and carries the fee/admin defaults.
type LedgerConfig struct {
	MinCommitDuration time.Duration
	MinRevealDuration time.Duration
	FeeRate           decimal.Decimal
	FeeRecipient      common.Address
	Paused            bool
}

type KeeperConfig struct {
	Interval time.Duration
	Workers  int
}

type LogConfig struct {
	Level       string
	Development bool
}

// StatsdConfig points at a datadog agent; an empty address disables metrics.
type StatsdConfig struct {
	Address   string
	Namespace string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.min_commit_duration", "1h")
	v.SetDefault("ledger.min_reveal_duration", "1h")
	v.SetDefault("ledger.fee_rate", "0")
	v.SetDefault("ledger.fee_recipient", "0x0000000000000000000000000000000000000000")
	v.SetDefault("ledger.paused", false)
	v.SetDefault("keeper.interval", "30s")
	v.SetDefault("keeper.workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("statsd.address", "")
	v.SetDefault("statsd.namespace", "sealedauction.")
}

// Load reads the YAML file at path (optional; empty means defaults plus
// environment only) and returns a validated Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	feeRate, err := decimal.NewFromString(v.GetString("ledger.fee_rate"))
	if err != nil {
		return nil, fmt.Errorf("invalid ledger.fee_rate %q: %w", v.GetString("ledger.fee_rate"), err)
	}

	recipient := v.GetString("ledger.fee_recipient")
	if !common.IsHexAddress(recipient) {
		return nil, fmt.Errorf("invalid ledger.fee_recipient %q", recipient)
	}

	cfg := &Config{
		Ledger: LedgerConfig{
			MinCommitDuration: v.GetDuration("ledger.min_commit_duration"),
			MinRevealDuration: v.GetDuration("ledger.min_reveal_duration"),
			FeeRate:           feeRate,
			FeeRecipient:      common.HexToAddress(recipient),
			Paused:            v.GetBool("ledger.paused"),
		},
		Keeper: KeeperConfig{
			Interval: v.GetDuration("keeper.interval"),
			Workers:  v.GetInt("keeper.workers"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Statsd: StatsdConfig{
			Address:   v.GetString("statsd.address"),
			Namespace: v.GetString("statsd.namespace"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	if c.Ledger.MinCommitDuration <= 0 {
		return fmt.Errorf("ledger.min_commit_duration must be positive, got %s", c.Ledger.MinCommitDuration)
	}
	if c.Ledger.MinRevealDuration <= 0 {
		return fmt.Errorf("ledger.min_reveal_duration must be positive, got %s", c.Ledger.MinRevealDuration)
	}
	if err := core.ValidateFeeRate(c.Ledger.FeeRate); err != nil {
		return fmt.Errorf("ledger.fee_rate: %w", err)
	}
	if !c.Ledger.FeeRate.IsZero() && c.Ledger.FeeRecipient == (common.Address{}) {
		return fmt.Errorf("ledger.fee_recipient is required when ledger.fee_rate is non-zero")
	}
	if c.Keeper.Interval <= 0 {
		return fmt.Errorf("keeper.interval must be positive, got %s", c.Keeper.Interval)
	}
	if c.Keeper.Workers <= 0 {
		return fmt.Errorf("keeper.workers must be positive, got %d", c.Keeper.Workers)
	}
	return nil
}
