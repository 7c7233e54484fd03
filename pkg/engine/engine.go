// Package engine wires the configured chain, venue and bridge tables
// into a ready-to-use routing engine. Built once at startup and passed
// by reference; there is no global instance.
package engine

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"crossroute/config"
	"crossroute/pkg/aggregator"
	"crossroute/pkg/bridge"
	"crossroute/pkg/router"
	"crossroute/pkg/signer"
	"crossroute/pkg/types"
	"crossroute/pkg/venue"
)

// Engine bundles the aggregators, composer, planner, executor and
// tracker built from one configuration.
type Engine struct {
	Quotes   *aggregator.Quotes
	Bridges  *aggregator.Bridges
	Composer *router.Composer
	Planner  *router.Planner
	Executor *router.Executor
	Tracker  *router.Tracker

	cfg     *config.Config
	tokens  map[uint64]map[string]types.Token
	clients map[uint64]*ethclient.Client
}

// Build dials every configured chain and constructs the engine.
func Build(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	clients := make(map[uint64]*ethclient.Client, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		client, err := ethclient.Dial(chain.RPCURL)
		if err != nil {
			closeAll(clients)
			return nil, fmt.Errorf("failed to connect to %s RPC: %w", chain.Name, err)
		}
		clients[chain.ChainID] = client
	}

	tokens := make(map[uint64]map[string]types.Token)
	var stables []types.Token
	for _, tc := range cfg.Tokens {
		token := types.Token{
			Address:  common.HexToAddress(tc.Address),
			Symbol:   tc.Symbol,
			Name:     tc.Name,
			Decimals: tc.Decimals,
			ChainID:  tc.ChainID,
		}
		if tokens[tc.ChainID] == nil {
			tokens[tc.ChainID] = make(map[string]types.Token)
		}
		tokens[tc.ChainID][tc.Symbol] = token
		if tc.Stable {
			stables = append(stables, token)
		}
	}

	adapters, reputation, err := buildVenues(cfg, clients)
	if err != nil {
		closeAll(clients)
		return nil, err
	}

	providers, err := buildBridges(cfg, clients)
	if err != nil {
		closeAll(clients)
		return nil, err
	}

	quotes := aggregator.NewQuotes(adapters, reputation, logger)
	bridges := aggregator.NewBridges(providers, logger)
	stableTable := router.NewStableTable(cfg.StablePreference, stables)
	composer := router.NewComposer(quotes, bridges, stableTable, logger)

	return &Engine{
		Quotes:   quotes,
		Bridges:  bridges,
		Composer: composer,
		Planner:  router.NewPlanner(composer, quotes, tokens, logger),
		Executor: router.NewExecutor(composer, quotes, bridges, logger),
		Tracker:  router.NewTracker(bridges, logger),
		cfg:      cfg,
		tokens:   tokens,
		clients:  clients,
	}, nil
}

func buildVenues(cfg *config.Config, clients map[uint64]*ethclient.Client) ([]venue.Adapter, map[string]int, error) {
	adapters := make([]venue.Adapter, 0, len(cfg.Venues))
	reputation := make(map[string]int, len(cfg.Venues))

	for _, vc := range cfg.Venues {
		client, ok := clients[vc.ChainID]
		if !ok {
			return nil, nil, fmt.Errorf("venue %s references undialed chain %d", vc.Name, vc.ChainID)
		}

		var (
			adapter venue.Adapter
			err     error
		)
		switch vc.Kind {
		case "v2":
			adapter, err = venue.NewV2Adapter(vc.Name, vc.ChainID, client, common.HexToAddress(vc.Router))
		case "v3":
			adapter, err = venue.NewV3Adapter(vc.Name, vc.ChainID, client, common.HexToAddress(vc.Quoter), common.HexToAddress(vc.Router), vc.FeeTier)
		default:
			err = fmt.Errorf("unknown venue kind %q", vc.Kind)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build venue %s: %w", vc.Name, err)
		}

		adapters = append(adapters, adapter)
		reputation[vc.Name] = vc.ReputationBonus
	}
	return adapters, reputation, nil
}

func buildBridges(cfg *config.Config, clients map[uint64]*ethclient.Client) ([]bridge.Provider, error) {
	var providers []bridge.Provider

	if cfg.Bridges.IntentsJWT != "" {
		blockchains, err := chainKeyMap(cfg.Bridges.IntentsBlockchains)
		if err != nil {
			return nil, fmt.Errorf("intents blockchains: %w", err)
		}
		intents, err := bridge.NewIntentsProvider(cfg.Bridges.IntentsJWT, blockchains, clients)
		if err != nil {
			return nil, fmt.Errorf("failed to build intents provider: %w", err)
		}
		providers = append(providers, intents)
	}

	if cfg.Bridges.MesonBaseURL != "" {
		slugs, err := chainKeyMap(cfg.Bridges.MesonSlugs)
		if err != nil {
			return nil, fmt.Errorf("meson slugs: %w", err)
		}
		providers = append(providers, bridge.NewMesonProvider(cfg.Bridges.MesonBaseURL, slugs, clients))
	}

	if cfg.Bridges.ButterBaseURL != "" {
		providers = append(providers, bridge.NewButterProvider(cfg.Bridges.ButterBaseURL, clients))
	}

	return providers, nil
}

// chainKeyMap converts string chain-id keys (the YAML/env form) to
// numeric ones.
func chainKeyMap(in map[string]string) (map[uint64]string, error) {
	out := make(map[uint64]string, len(in))
	for key, value := range in {
		chainID, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed chain id %q", key)
		}
		out[chainID] = value
	}
	return out, nil
}

// Token resolves a symbol on a chain from the configured token table.
func (e *Engine) Token(chainID uint64, symbol string) (types.Token, error) {
	token, ok := e.tokens[chainID][symbol]
	if !ok {
		return types.Token{}, fmt.Errorf("token %s is not configured on chain %d", symbol, chainID)
	}
	return token, nil
}

// Tokens returns the configured token table.
func (e *Engine) Tokens() map[uint64]map[string]types.Token { return e.tokens }

// Chains returns the configured chains.
func (e *Engine) Chains() []config.ChainConfig { return e.cfg.Chains }

// Venues returns the configured venue deployments.
func (e *Engine) Venues() []config.VenueConfig { return e.cfg.Venues }

// Signer loads the local signer from the configured key env var.
func (e *Engine) Signer() (signer.TxSigner, error) {
	return signer.NewLocalFromEnv(e.cfg.SignerKeyEnv)
}

// Close releases every RPC connection.
func (e *Engine) Close() {
	closeAll(e.clients)
}

func closeAll(clients map[uint64]*ethclient.Client) {
	for _, client := range clients {
		client.Close()
	}
}
