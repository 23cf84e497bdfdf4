// Command cnsc is the administrative CLI over the zone store (spec §6):
// zone management and stage editing, run out-of-process from the daemon
// but against the same Consul KV store.
package main

import (
	"fmt"
	"os"

	"github.com/lucat1/consulns/cmd/cnsc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
