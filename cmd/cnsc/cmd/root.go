package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lucat1/consulns/internal/kv"
	"github.com/lucat1/consulns/internal/reload"
	"github.com/lucat1/consulns/internal/store"
)

var consulDSN string

var rootCmd = &cobra.Command{
	Use:   "cnsc",
	Short: "cnsc manages consulns zones and their pending changes",
	Long: `cnsc is the administrative CLI over the consulns zone store.

It talks directly to the same Consul KV store the daemon reads from; set
the store address via the CONSUL_ADDR environment variable or --consul.`,
}

// Execute runs the CLI's root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&consulDSN, "consul", "", "Consul KV DSN (or set CONSUL_ADDR)")
	rootCmd.AddCommand(zoneCmd, stageCmd)
}

// getStore dials the Consul KV store and wraps it as a zone Store.
func getStore() (*store.Store, error) {
	dsn := consulDSN
	if dsn == "" {
		dsn = os.Getenv("CONSUL_ADDR")
	}
	if dsn == "" {
		dsn = "http://127.0.0.1:8500"
	}
	kvStore, err := kv.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("dialing consul: %w", err)
	}
	return store.New(kvStore), nil
}

// notifyReload publishes a cache-reload notification for zone when
// CONSULNS_RELOAD_ADDR is set, so a running daemon need not wait for
// SIGHUP or its next restart to pick up a commit (spec §9).
func notifyReload(zone string) {
	addr := os.Getenv("CONSULNS_RELOAD_ADDR")
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()
	pub := reload.NewPublisher(rdb)
	_ = pub.Publish(context.Background(), zone)
}
