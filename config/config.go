// Copyright 2018 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package config loads client settings from METAKOMBAT_* environment
// variables.  Command-line flags override what is loaded here.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoContract is returned when no game contract address is configured.
var ErrNoContract = errors.New("config: game contract address is required")

// Config holds the client settings.
type Config struct {
	// RPC is the Ethereum JSON-RPC endpoint used for contract calls.
	RPC string `env:"METAKOMBAT_RPC" envDefault:"http://localhost:8545"`

	// Wallet is the wallet provider endpoint.  "none" means no wallet is
	// installed; "rpc" reuses the RPC endpoint.
	Wallet string `env:"METAKOMBAT_WALLET" envDefault:"rpc"`

	// Contract is the deployed MyEpicGame address.
	Contract string `env:"METAKOMBAT_CONTRACT"`

	// Listen is the address the session API is served on.
	Listen string `env:"METAKOMBAT_LISTEN" envDefault:"localhost:8551"`

	// Origins lists the origins allowed to open a WebSocket to the session API.
	Origins []string `env:"METAKOMBAT_ORIGINS" envSeparator:"," envDefault:"*"`

	CheckTimeout   time.Duration `env:"METAKOMBAT_CHECK_TIMEOUT"   envDefault:"30s"`
	ConfirmTimeout time.Duration `env:"METAKOMBAT_CONFIRM_TIMEOUT" envDefault:"2m"`

	// FollowInterval enables wallet-side account tracking when non-zero.
	FollowInterval time.Duration `env:"METAKOMBAT_FOLLOW_INTERVAL" envDefault:"0s"`

	Verbosity int `env:"METAKOMBAT_VERBOSITY" envDefault:"3"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// WalletEndpoint resolves the wallet provider endpoint.
func (c Config) WalletEndpoint() string {
	switch c.Wallet {
	case "rpc":
		return c.RPC
	case "none":
		return ""
	default:
		return c.Wallet
	}
}

// ContractAddress validates and returns the game contract address.
func (c Config) ContractAddress() (common.Address, error) {
	if c.Contract == "" {
		return common.Address{}, ErrNoContract
	}
	if !common.IsHexAddress(c.Contract) {
		return common.Address{}, fmt.Errorf("config: invalid contract address %q", c.Contract)
	}
	return common.HexToAddress(c.Contract), nil
}
