// Package kv adapts the Consul KV HTTP API to typed get/put of whole JSON
// documents (spec §4.1). It is the only package that imports the Consul
// client library; everything above it speaks Go structs.
package kv

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"

	"github.com/lucat1/consulns/internal/domain"
)

// DefaultPort is used when a Consul DSN omits an explicit port (spec §6).
const DefaultPort = 8500

// backend is the slice of the Consul KV HTTP API this adapter depends on.
// *consulapi.KV satisfies it; tests substitute an in-memory fake.
type backend interface {
	Get(key string, q *consulapi.QueryOptions) (*consulapi.KVPair, *consulapi.QueryMeta, error)
	Put(p *consulapi.KVPair, w *consulapi.WriteOptions) (*consulapi.WriteMeta, error)
}

// Store is a typed get/put adapter over a Consul KV store. Values are
// whole JSON documents; there is no partial-field update.
type Store struct {
	client backend
}

// Dial parses a Consul DSN (scheme://host[:port]) and returns a connected
// Store. Port defaults to DefaultPort when absent.
func Dial(dsn string) (*Store, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("kv: invalid consul dsn %q: %w", dsn, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("kv: unsupported consul scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("kv: consul dsn %q is missing a host", dsn)
	}
	port := u.Port()
	if port == "" {
		port = strconv.Itoa(DefaultPort)
	}

	cfg := consulapi.DefaultConfig()
	cfg.Address = fmt.Sprintf("%s:%s", host, port)
	cfg.Scheme = u.Scheme

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("kv: building consul client: %w", err)
	}
	return &Store{client: client.KV()}, nil
}

// NewWithClient wraps an already-constructed Consul API client; used by
// integration tests against a real agent.
func NewWithClient(c *consulapi.Client) *Store {
	return &Store{client: c.KV()}
}

// NewWithBackend wraps an arbitrary backend implementation; used by unit
// tests substituting an in-memory fake for the Consul HTTP API.
func NewWithBackend(b backend) *Store {
	return &Store{client: b}
}

// Get fetches key and parses its Value as UTF-8 JSON into a freshly
// allocated *T. It returns (0, nil, nil) when the key does not exist — an
// absent key is not an error. The returned index is the KV entry's
// ModifyIndex, useful for a future CAS-based write.
func Get[T any](s *Store, key string) (index uint64, value *T, err error) {
	pair, _, err := s.client.Get(key, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("kv: get %s: %w", key, err)
	}
	if pair == nil {
		return 0, nil, nil
	}
	var v T
	if err := json.Unmarshal(pair.Value, &v); err != nil {
		return 0, nil, fmt.Errorf("kv: decoding %s: %w", key, err)
	}
	return pair.ModifyIndex, &v, nil
}

// Put serialises value to JSON and writes it whole to key.
func Put[T any](s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encoding %s: %w", key, err)
	}
	pair := &consulapi.KVPair{Key: key, Value: data}
	if _, err := s.client.Put(pair, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrKeyNotInserted, key, err)
	}
	return nil
}
