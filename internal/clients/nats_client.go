package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/config"
	"bridge-backend/internal/metrics"
)

// NATSClient NATS client
type NATSClient struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

// NewNATSClient Create NATS client
func NewNATSClient(cfg config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.MaxReconnects > 0 {
		maxReconnects = cfg.MaxReconnects
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("bridge-backend"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)
	logger.WithField("url", cfg.URL).Info("NATS client connected")

	return &NATSClient{conn: conn, logger: logger}, nil
}

// Publish sends a message on a subject
func (c *NATSClient) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		metrics.NATSMessagesPublished.WithLabelValues(subject, "error").Inc()
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	metrics.NATSMessagesPublished.WithLabelValues(subject, "ok").Inc()
	return nil
}

// HealthCheck fails unless the connection is up
func (c *NATSClient) HealthCheck(ctx context.Context) error {
	if c.conn == nil || !c.conn.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}
	return c.conn.FlushWithContext(ctx)
}

// Close drains and closes the connection
func (c *NATSClient) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.WithError(err).Warn("NATS drain failed")
		c.conn.Close()
	}
	metrics.NATSConnectionStatus.Set(0)
}
