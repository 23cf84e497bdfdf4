// Package kvtest provides an in-memory stand-in for the Consul KV HTTP API,
// letting store and cache tests exercise kv.Store without a running agent.
package kvtest

import (
	"errors"
	"sync"

	consulapi "github.com/hashicorp/consul/api"
)

var errSimulatedPutFailure = errors.New("kvtest: simulated put failure")

// Fake is an in-memory implementation of the same two-method surface
// kv.Store depends on (*consulapi.KV's Get/Put). Zero value is ready to use.
type Fake struct {
	mu    sync.Mutex
	pairs map[string]*consulapi.KVPair
	index uint64

	// FailPut, when set, makes every Put fail — used to exercise the
	// commit path's records-then-stage crash-recovery contract.
	FailPut bool
}

// NewFake builds an empty Fake store.
func NewFake() *Fake {
	return &Fake{pairs: map[string]*consulapi.KVPair{}}
}

func (f *Fake) Get(key string, _ *consulapi.QueryOptions) (*consulapi.KVPair, *consulapi.QueryMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pair, ok := f.pairs[key]
	if !ok {
		return nil, &consulapi.QueryMeta{}, nil
	}
	cp := *pair
	return &cp, &consulapi.QueryMeta{LastIndex: pair.ModifyIndex}, nil
}

func (f *Fake) Put(p *consulapi.KVPair, _ *consulapi.WriteOptions) (*consulapi.WriteMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailPut {
		return nil, errSimulatedPutFailure
	}
	if f.pairs == nil {
		f.pairs = map[string]*consulapi.KVPair{}
	}
	f.index++
	stored := &consulapi.KVPair{Key: p.Key, Value: append([]byte(nil), p.Value...), ModifyIndex: f.index}
	f.pairs[p.Key] = stored
	return &consulapi.WriteMeta{}, nil
}
