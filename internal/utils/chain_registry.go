package utils

import (
	"fmt"
	"sort"
	"sync"

	"bridge-backend/internal/models"
)

// ChainRegistry chain metadata indexed by chain id
type ChainRegistry struct {
	mu     sync.RWMutex
	chains map[string]*models.ChainInfo
}

// NewChainRegistry builds a registry from chain infos; later duplicates win
func NewChainRegistry(chains []*models.ChainInfo) *ChainRegistry {
	r := &ChainRegistry{
		chains: make(map[string]*models.ChainInfo, len(chains)),
	}
	for _, chain := range chains {
		r.Register(chain)
	}
	return r
}

// Register adds or replaces a chain
func (r *ChainRegistry) Register(chain *models.ChainInfo) {
	if chain == nil || chain.ChainID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[chain.ChainID] = chain
}

// GetChain resolves a chain by id
func (r *ChainRegistry) GetChain(chainID string) (*models.ChainInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("unsupported chain: %s", chainID)
	}
	return info, nil
}

// HasFeature reports whether a registered chain declares a feature; unknown chains have none
func (r *ChainRegistry) HasFeature(chainID, feature string) bool {
	info, err := r.GetChain(chainID)
	if err != nil {
		return false
	}
	return info.HasFeature(feature)
}

// GetRPCEndpoint returns the first EVM RPC endpoint of a chain
func (r *ChainRegistry) GetRPCEndpoint(chainID string) (string, error) {
	info, err := r.GetChain(chainID)
	if err != nil {
		return "", err
	}
	if len(info.RPCEndpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoint for chain: %s", chainID)
	}
	return info.RPCEndpoints[0], nil
}

// GetAllChains returns every chain ordered by id
func (r *ChainRegistry) GetAllChains() []*models.ChainInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chains := make([]*models.ChainInfo, 0, len(r.chains))
	for _, chain := range r.chains {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].ChainID < chains[j].ChainID })
	return chains
}
