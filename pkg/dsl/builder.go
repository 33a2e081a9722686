package dsl

import (
	"fmt"

	"github.com/aretw0/chains/pkg/scenario"
)

// Builder manages the document construction.
type Builder struct {
	group  scenario.GroupMode
	chains []*ChainBuilder
	index  map[string]*ChainBuilder
}

// New creates a new document builder. The group mode defaults to parallel.
func New() *Builder {
	return &Builder{
		group: scenario.GroupParallel,
		index: make(map[string]*ChainBuilder),
	}
}

// Group sets how the top-level chains are coordinated.
func (b *Builder) Group(mode scenario.GroupMode) *Builder {
	b.group = mode
	return b
}

// Add appends a new top-level chain.
// If a chain with the same id exists, it returns the existing builder. An empty id
// always adds a new chain, which gets a generated id when built.
func (b *Builder) Add(id string) *ChainBuilder {
	if id != "" {
		if cb, ok := b.index[id]; ok {
			return cb
		}
	}
	cb := &ChainBuilder{spec: scenario.ChainSpec{ID: id}, builder: b}
	b.chains = append(b.chains, cb)
	if id != "" {
		b.index[id] = cb
	}
	return cb
}

// Build assembles the document and validates it.
func (b *Builder) Build() (*scenario.Document, error) {
	doc := &scenario.Document{
		Group:  b.group,
		Chains: make([]scenario.ChainSpec, 0, len(b.chains)),
	}
	for _, cb := range b.chains {
		doc.Chains = append(doc.Chains, cb.build())
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build scenario: %w", err)
	}
	return doc, nil
}
