// Package zkserver runs a disposable coordination server in a container.
// It exists for tests and for the server.enabled development mode; the
// core backend never depends on it being present.
package zkserver

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const image = "zookeeper:3.9"

// Server is a containerized ZooKeeper instance.
type Server struct {
	container testcontainers.Container
	addr      string
}

// Start launches the container and waits until the client port accepts
// connections. port is the host port to map; 0 lets the runtime pick.
func Start(ctx context.Context, port int) (*Server, error) {
	exposed := "2181/tcp"
	if port != 0 {
		exposed = fmt.Sprintf("%d:2181/tcp", port)
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{exposed},
			WaitingFor:   wait.ForListeningPort("2181/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("zkserver: start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("zkserver: container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, "2181/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("zkserver: mapped port: %w", err)
	}

	return &Server{
		container: container,
		addr:      fmt.Sprintf("%s:%s", host, mapped.Port()),
	}, nil
}

// Addr is the connect string clients should dial.
func (s *Server) Addr() string { return s.addr }

func (s *Server) Stop(ctx context.Context) error {
	if err := s.container.Terminate(ctx); err != nil {
		return fmt.Errorf("zkserver: terminate: %w", err)
	}
	return nil
}
