// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package config loads and validates the service configuration.
package config

import (
	"fmt"

	"github.com/luxfi/xcmsim/types"
)

// ChainKeyConfig is a pre-configured signing key for one parachain.
// Exactly one of secret-key or seed-phrase may be set.
type ChainKeyConfig struct {
	ParaID     uint32 `mapstructure:"para-id" json:"para-id"`
	SecretKey  string `mapstructure:"secret-key" json:"-"`
	SeedPhrase string `mapstructure:"seed-phrase" json:"-"`
}

// Config is the root service configuration.
type Config struct {
	LogLevel    string           `mapstructure:"log-level" json:"log-level"`
	APIPort     uint16           `mapstructure:"api-port" json:"api-port"`
	MetricsPort uint16           `mapstructure:"metrics-port" json:"metrics-port"`
	ChainCount  uint32           `mapstructure:"chain-count" json:"chain-count"`
	XCMVersion  string           `mapstructure:"xcm-version" json:"xcm-version"`
	ChainKeys   []ChainKeyConfig `mapstructure:"chain-keys" json:"chain-keys,omitempty"`
}

// Validate normalizes the configuration and rejects inconsistent values.
func (c *Config) Validate() error {
	if _, err := types.ParseVersion(c.XCMVersion); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[uint32]struct{}, len(c.ChainKeys))
	for _, entry := range c.ChainKeys {
		if entry.ParaID == 0 {
			return fmt.Errorf("invalid configuration: parachain id must be non-zero")
		}
		if _, ok := seen[entry.ParaID]; ok {
			return fmt.Errorf("invalid configuration: duplicate parachain id %d in key configuration", entry.ParaID)
		}
		seen[entry.ParaID] = struct{}{}
	}

	if count := uint32(len(c.ChainKeys)); count > c.ChainCount {
		c.ChainCount = count
	}
	return nil
}

// ParaIDs returns the parachain ids to initialise: the explicitly keyed
// chains when configured, otherwise chain-count ids starting at 1000.
func (c *Config) ParaIDs() []uint32 {
	if len(c.ChainKeys) > 0 {
		ids := make([]uint32, 0, len(c.ChainKeys))
		for _, entry := range c.ChainKeys {
			ids = append(ids, entry.ParaID)
		}
		return ids
	}

	ids := make([]uint32, 0, c.ChainCount)
	for i := uint32(0); i < c.ChainCount; i++ {
		ids = append(ids, firstParaID+i)
	}
	return ids
}
