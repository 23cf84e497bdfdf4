package store

import (
	"context"
	"testing"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/kv"
)

func setupConsul(t *testing.T) *kv.Store {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "hashicorp/consul:1.19",
		ExposedPorts: []string{"8500/tcp"},
		Cmd:          []string{"agent", "-dev", "-client=0.0.0.0"},
		WaitingFor:   wait.ForListeningPort("8500/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start consul container: %s", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %s", err)
	}
	port, err := container.MappedPort(ctx, "8500")
	if err != nil {
		t.Fatalf("failed to get mapped port: %s", err)
	}

	cfg := consulapi.DefaultConfig()
	cfg.Address = host + ":" + port.Port()
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to build consul client: %s", err)
	}
	return kv.NewWithClient(client)
}

func TestStore_Integration_AddZoneCommitLookupRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	kvStore := setupConsul(t)
	st := New(kvStore)

	z, err := st.AddZone(domain.NewName("example.com"))
	if err != nil {
		t.Fatalf("add zone: %s", err)
	}

	r := domain.NewRecord("www", domain.TypeA, "1.2.3.4", 300)
	if err := z.Stage().AddRecord(r); err != nil {
		t.Fatalf("stage add: %s", err)
	}
	if err := z.Commit(); err != nil {
		t.Fatalf("commit: %s", err)
	}

	fresh, err := st.Zone(domain.NewName("example.com"))
	if err != nil {
		t.Fatalf("zone: %s", err)
	}
	records, err := fresh.Records()
	if err != nil {
		t.Fatalf("records: %s", err)
	}
	if len(records) != 1 || records[0].Value != "1.2.3.4" {
		t.Fatalf("expected one committed record with value 1.2.3.4, got %+v", records)
	}
}
