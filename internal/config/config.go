// Package config loads the order bot configuration: the shared core sections
// plus database, profit and profile settings.
package config

import (
	"fmt"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/database"
	"github.com/m3rciful/orderbot/internal/profile"
	"github.com/m3rciful/orderbot/internal/profit"
)

// ProfitConfig holds the fee rates as decimal strings.
type ProfitConfig struct {
	PlatformFee string `yaml:"platform_fee" envconfig:"PROFIT_PLATFORM_FEE"`
	AdvanceFee  string `yaml:"advance_fee" envconfig:"PROFIT_ADVANCE_FEE"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Profit   ProfitConfig    `yaml:"profit"`
	Profile  profile.Config  `yaml:"profile"`

	calculator profit.Calculator
}

// CoreConfig exposes the shared core sections.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Calculator returns the profit calculator built from the fee settings.
func (c *Config) Calculator() profit.Calculator {
	return c.calculator
}

// Load reads path (optional) and the environment, then validates every section.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := coreconfig.Decode(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	calc, err := profit.New(c.Profit.PlatformFee, c.Profit.AdvanceFee)
	if err != nil {
		return fmt.Errorf("profit: %w", err)
	}
	c.calculator = calc
	return nil
}
