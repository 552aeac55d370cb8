package router

import (
	"context"
	"fmt"
	"sync"
)

// StoredNode is the serialized shape of one chain node, as spec §4.4 and
// §6 describe: enough to relocate a live Option in a (possibly rebuilt)
// registry.
type StoredNode struct {
	HandlerName  string `json:"handlerName"`
	FormatMIME   string `json:"formatMime"`
	FormatFormat string `json:"formatFormat"`
}

// ToStored serializes chain for persistence.
func (c Chain) ToStored() []StoredNode {
	out := make([]StoredNode, len(c))
	for i, n := range c {
		out[i] = StoredNode{
			HandlerName:  n.Handler.Name(),
			FormatMIME:   n.Format.MIME,
			FormatFormat: n.Format.Code,
		}
	}
	return out
}

// ChainFromStored reconstructs a live chain from its serialized form by
// locating, for each stored node, a matching option in registry. It
// returns false if any node can't be resolved (spec §4.4's recall
// contract).
func ChainFromStored(nodes []StoredNode, registry *FormatRegistry) (Chain, bool) {
	chain := make(Chain, 0, len(nodes))
	for _, sn := range nodes {
		opt, ok := registry.FindOption(sn.HandlerName, sn.FormatMIME, sn.FormatFormat)
		if !ok {
			return nil, false
		}
		chain = append(chain, Node{Handler: opt.Handler, Format: opt.Format})
	}
	return chain, true
}

// RouteKey builds a PathStore key per spec §4.4: "{inputMime}→{outputMime}"
// in Simple mode, with the output handler name appended in Advanced mode
// since different handlers producing the same MIME may yield different
// bytes.
func RouteKey(mode Mode, inputMIME, outputMIME, outputHandlerName string) string {
	if mode == Advanced {
		return fmt.Sprintf("%s→%s:%s", inputMIME, outputMIME, outputHandlerName)
	}
	return fmt.Sprintf("%s→%s", inputMIME, outputMIME)
}

// PathPersister is the storage seam a PathStore delegates to. Implemented
// by internal/pathstorage for SQLite-backed persistence, and by
// MemPersister for tests and as an in-process-only fallback.
type PathPersister interface {
	Get(ctx context.Context, key string) ([]StoredNode, bool, error)
	Set(ctx context.Context, key string, nodes []StoredNode) error
	Delete(ctx context.Context, key string) error
}

// PathStore is the persistent mapping from a route key to a chain that
// lets subsequent conversions skip the search (spec §4.4).
type PathStore struct {
	persister PathPersister
	registry  *FormatRegistry
}

// NewPathStore binds a persister to a registry for live-chain
// reconstruction.
func NewPathStore(persister PathPersister, registry *FormatRegistry) *PathStore {
	return &PathStore{persister: persister, registry: registry}
}

// Recall reconstructs a live chain for key, or reports false if there is
// no entry or any of its nodes no longer resolve in the current registry.
func (p *PathStore) Recall(ctx context.Context, key string) (Chain, bool) {
	nodes, ok, err := p.persister.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return ChainFromStored(nodes, p.registry)
}

// Store overwrites the entry for key with chain.
func (p *PathStore) Store(ctx context.Context, key string, chain Chain) error {
	return p.persister.Set(ctx, key, chain.ToStored())
}

// Evict deletes the entry for key, used on recall-then-replay failure
// (spec §4.4's policy: "on replay failure ... evict the entry and fall
// through to BFS").
func (p *PathStore) Evict(ctx context.Context, key string) error {
	return p.persister.Delete(ctx, key)
}

// MemPersister is an in-memory PathPersister, used by tests and as the
// default when no durable store is configured.
type MemPersister struct {
	mu      sync.Mutex
	entries map[string][]StoredNode
}

// NewMemPersister returns an empty in-memory persister.
func NewMemPersister() *MemPersister {
	return &MemPersister{entries: make(map[string][]StoredNode)}
}

func (m *MemPersister) Get(_ context.Context, key string) ([]StoredNode, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodes, ok := m.entries[key]
	return nodes, ok, nil
}

func (m *MemPersister) Set(_ context.Context, key string, nodes []StoredNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = nodes
	return nil
}

func (m *MemPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
