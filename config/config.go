// Package config loads the static chain, token, venue and bridge tables
// the routing engine is wired from.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ChainConfig describes one supported blockchain.
type ChainConfig struct {
	Name    string `mapstructure:"name"`
	ChainID uint64 `mapstructure:"chain_id"`
	RPCURL  string `mapstructure:"rpc_url"`
}

// TokenConfig describes a known token deployment on one chain.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
	ChainID  uint64 `mapstructure:"chain_id"`
	Stable   bool   `mapstructure:"stable"` // eligible as a bridge token
}

// VenueConfig describes one DEX deployment.
type VenueConfig struct {
	Name            string `mapstructure:"name"`
	Kind            string `mapstructure:"kind"` // "v2" or "v3"
	ChainID         uint64 `mapstructure:"chain_id"`
	Router          string `mapstructure:"router"`
	Quoter          string `mapstructure:"quoter"`   // v3 only
	FeeTier         uint32 `mapstructure:"fee_tier"` // v3 only
	ReputationBonus int    `mapstructure:"reputation_bonus"`
}

// BridgesConfig holds per-provider bridge settings. A provider with an
// empty base URL (or JWT, for intents) is not registered.
type BridgesConfig struct {
	IntentsJWT         string            `mapstructure:"intents_jwt"`
	IntentsBlockchains map[string]string `mapstructure:"intents_blockchains"` // chain id -> API slug
	MesonBaseURL       string            `mapstructure:"meson_base_url"`
	MesonSlugs         map[string]string `mapstructure:"meson_slugs"`
	ButterBaseURL      string            `mapstructure:"butter_base_url"`
}

// Config is the full engine configuration.
type Config struct {
	Chains           []ChainConfig `mapstructure:"chains"`
	Tokens           []TokenConfig `mapstructure:"tokens"`
	StablePreference []string      `mapstructure:"stable_preference"`
	Venues           []VenueConfig `mapstructure:"venues"`
	Bridges          BridgesConfig `mapstructure:"bridges"`
	SignerKeyEnv     string        `mapstructure:"signer_key_env"`
}

// Load reads configuration from the optional .crossroute.yaml file and
// CROSSROUTE_-prefixed environment variables, over built-in defaults for
// the standard chain/token/venue tables.
func Load() (*Config, error) {
	viper.SetConfigName(".crossroute")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("stable_preference", []string{"USDC", "USDT"})
	viper.SetDefault("signer_key_env", "CROSSROUTE_PRIVATE_KEY")
	viper.SetDefault("bridges.meson_base_url", "https://relayer.meson.fi/api/v1")
	viper.SetDefault("bridges.butter_base_url", "https://bs-router-v3.chainservice.io")

	viper.SetEnvPrefix("CROSSROUTE")
	viper.AutomaticEnv()

	// Config file is optional; defaults cover the standard tables.
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.Bridges.IntentsJWT == "" {
		cfg.Bridges.IntentsJWT = viper.GetString("intents_jwt")
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded tables for consistency.
func (c *Config) Validate() error {
	chains := make(map[uint64]bool, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.ChainID == 0 {
			return fmt.Errorf("chain %q has no chain id", chain.Name)
		}
		if chain.RPCURL == "" {
			return fmt.Errorf("chain %q has no RPC URL", chain.Name)
		}
		if chains[chain.ChainID] {
			return fmt.Errorf("chain id %d configured twice", chain.ChainID)
		}
		chains[chain.ChainID] = true
	}
	for _, token := range c.Tokens {
		if !chains[token.ChainID] {
			return fmt.Errorf("token %s references unknown chain %d", token.Symbol, token.ChainID)
		}
	}
	for _, venue := range c.Venues {
		if !chains[venue.ChainID] {
			return fmt.Errorf("venue %s references unknown chain %d", venue.Name, venue.ChainID)
		}
		if venue.Kind != "v2" && venue.Kind != "v3" {
			return fmt.Errorf("venue %s has unknown kind %q", venue.Name, venue.Kind)
		}
		if venue.Kind == "v3" && venue.Quoter == "" {
			return fmt.Errorf("v3 venue %s has no quoter address", venue.Name)
		}
	}
	return nil
}

// applyDefaults fills in the standard Ethereum/BNB tables when the
// config file defines none.
func applyDefaults(cfg *Config) {
	if len(cfg.Chains) == 0 {
		cfg.Chains = []ChainConfig{
			{Name: "ethereum", ChainID: 1, RPCURL: "https://eth.llamarpc.com"},
			{Name: "bsc", ChainID: 56, RPCURL: "https://binance.llamarpc.com"},
		}
	}
	if len(cfg.Tokens) == 0 {
		cfg.Tokens = []TokenConfig{
			{Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, ChainID: 1, Stable: true},
			{Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, ChainID: 1, Stable: true},
			{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, ChainID: 1},
			{Symbol: "USDC", Name: "USD Coin", Address: "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", Decimals: 18, ChainID: 56, Stable: true},
			{Symbol: "USDT", Name: "Tether USD", Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18, ChainID: 56, Stable: true},
			{Symbol: "WBNB", Name: "Wrapped BNB", Address: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", Decimals: 18, ChainID: 56},
		}
	}
	if len(cfg.Venues) == 0 {
		cfg.Venues = []VenueConfig{
			{Name: "uniswap_v2", Kind: "v2", ChainID: 1, Router: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", ReputationBonus: 5},
			{Name: "uniswap_v3", Kind: "v3", ChainID: 1, Router: "0xE592427A0AEce92De3Edee1F18E0157C05861564", Quoter: "0x61fFE014bA17989E743c5F6cB21bF9697530B21e", FeeTier: 3000, ReputationBonus: 5},
			{Name: "pancakeswap", Kind: "v2", ChainID: 56, Router: "0x10ED43C718714eb63d5aA57B78B54704E256024E", ReputationBonus: 3},
		}
	}
	if len(cfg.Bridges.IntentsBlockchains) == 0 {
		cfg.Bridges.IntentsBlockchains = map[string]string{"1": "eth", "56": "bsc"}
	}
	if len(cfg.Bridges.MesonSlugs) == 0 {
		cfg.Bridges.MesonSlugs = map[string]string{"1": "eth", "56": "bnb"}
	}
}
