package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/config"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
)

// UDPListener receives telemetry datagrams and feeds them to the Service.
type UDPListener struct {
	service *Service
	cfg     config.TelemetryConfig
	conn    *net.UDPConn
	logger  *logging.Logger
}

// NewUDPListener binds the telemetry socket.
func NewUDPListener(service *Service, cfg config.TelemetryConfig, logger *logging.Logger) (*UDPListener, error) {
	addr := &net.UDPAddr{
		IP:   net.ParseIP(cfg.Host),
		Port: cfg.Port,
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding telemetry socket %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &UDPListener{
		service: service,
		cfg:     cfg,
		conn:    conn,
		logger:  logger.With("component", "telemetry-udp"),
	}, nil
}

// Run reads datagrams until the context is cancelled. Each datagram is one
// complete JSON report; there is no framing and no reply.
func (l *UDPListener) Run(ctx context.Context) {
	l.logger.Info("Telemetry listener started", "addr", l.conn.LocalAddr().String())

	// Unblock ReadFromUDP when the context is cancelled.
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, l.cfg.ReadBufferSize)
	for {
		n, remote, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.logger.Info("Telemetry listener stopped")
				return
			}
			l.logger.Error("Telemetry read failed", "error", err)
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		// Drop errors on the floor: the sender never gets a reply and the
		// service has already logged the cause.
		_ = l.service.Ingest(ctx, payload, Origin{
			Transport: "udp",
			Source:    remote.String(),
		})
	}
}

// Addr returns the bound listener address, useful when port 0 was requested.
func (l *UDPListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
