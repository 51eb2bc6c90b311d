// Package testutil provides shared test infrastructure for integration
// tests that require a Qdrant container.
//
// Usage:
//
//	qc, err := testutil.StartQdrant(ctx)
//	require.NoError(t, err)
//	t.Cleanup(qc.Terminate)
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// QdrantContainer wraps a running Qdrant testcontainer and its mapped
// gRPC address.
type QdrantContainer struct {
	Container testcontainers.Container
	Host      string
	GRPCPort  int
}

// StartQdrant starts a Qdrant container and waits for its gRPC port.
func StartQdrant(ctx context.Context) (*QdrantContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "qdrant/qdrant:v1.12.4",
		ExposedPorts: []string{"6334/tcp"},
		WaitingFor:   wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("testutil: start qdrant container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("testutil: get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6334")
	if err != nil {
		return nil, fmt.Errorf("testutil: get container port: %w", err)
	}

	return &QdrantContainer{Container: container, Host: host, GRPCPort: port.Int()}, nil
}

// Terminate stops and removes the container.
func (qc *QdrantContainer) Terminate() {
	_ = qc.Container.Terminate(context.Background())
}

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
