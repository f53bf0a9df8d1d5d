// file: internal/authmgr/nats_client.go

package authmgr

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"auth-refresher/internal/logger"
)

// Timeout and retry constants for NATS client operations
const (
	// natsKVOperationTimeout is the maximum time for opening the KV bucket
	natsKVOperationTimeout = 10 * time.Second

	// natsReconnectWait is the delay between NATS reconnection attempts
	natsReconnectWait = 50 * time.Millisecond
)

// TokenStore persists encoded token records under a key
type TokenStore interface {
	StoreToken(ctx context.Context, key string, record []byte) error
}

// NATSClient writes token records to a JetStream KV bucket.
// No subscriptions, no consumers, no streams.
type NATSClient struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	logger *logger.Logger
	prefix string
}

// NewNATSClient connects to NATS and opens the KV bucket, which must exist
func NewNATSClient(cfg *NATSConfig, storageConfig *StorageConfig, log *logger.Logger, metrics *Metrics) (*NATSClient, error) {
	log.Info("connecting to NATS", "urls", cfg.URLs)

	opts, err := buildNATSOptions(cfg, log, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS options: %w", err)
	}

	nc, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if metrics != nil {
		metrics.SetNATSConnected(true)
	}

	log.Info("NATS connection established", "connectedURL", nc.ConnectedUrl())

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), natsKVOperationTimeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, storageConfig.Bucket)
	if err != nil {
		nc.Close()
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("KV bucket '%s' not found. Create it with: nats kv add %s",
				storageConfig.Bucket, storageConfig.Bucket)
		}
		return nil, fmt.Errorf("failed to open KV bucket '%s': %w", storageConfig.Bucket, err)
	}

	log.Info("KV bucket opened successfully", "bucket", storageConfig.Bucket)

	return &NATSClient{
		conn:   nc,
		kv:     kv,
		logger: log,
		prefix: storageConfig.KeyPrefix,
	}, nil
}

// StoreToken writes an encoded token record under prefix+key
func (c *NATSClient) StoreToken(ctx context.Context, key string, record []byte) error {
	fullKey := c.prefix + key
	c.logger.Debug("storing token record in KV", "key", fullKey)

	revision, err := c.kv.Put(ctx, fullKey, record)
	if err != nil {
		return fmt.Errorf("failed to store token record: %w", err)
	}

	c.logger.Debug("token record stored", "key", fullKey, "revision", revision)
	return nil
}

// Close drains and closes the NATS connection
func (c *NATSClient) Close() error {
	c.logger.Info("closing NATS connection")

	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain connection: %w", err)
	}

	c.logger.Info("NATS connection closed")
	return nil
}

// buildNATSOptions creates NATS connection options with auth and TLS
func buildNATSOptions(cfg *NATSConfig, log *logger.Logger, metrics *Metrics) ([]nats.Option, error) {
	var opts []nats.Option

	opts = append(opts,
		nats.Name("auth-publisher"),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
			if metrics != nil {
				metrics.SetNATSConnected(false)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
			if metrics != nil {
				metrics.SetNATSConnected(true)
				metrics.IncNATSReconnects()
			}
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed", "lastError", nc.LastError())
			if metrics != nil {
				metrics.SetNATSConnected(false)
			}
		}),
		nats.MaxReconnects(-1), // Unlimited reconnects
		nats.ReconnectWait(natsReconnectWait),
	)

	// Authentication (choose one method)
	switch {
	case cfg.CredsFile != "":
		log.Info("using NATS creds file authentication", "credsFile", cfg.CredsFile)
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	case cfg.NKeySeed != "":
		kp, err := userKeyPair(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		pub, err := kp.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
		}
		log.Info("using NATS NKey authentication", "publicKey", pub)
		opts = append(opts, nats.Nkey(pub, kp.Sign))
	case cfg.Token != "":
		log.Info("using NATS token authentication")
		opts = append(opts, nats.Token(cfg.Token))
	case cfg.Username != "":
		log.Info("using NATS username/password authentication", "username", cfg.Username)
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	// TLS configuration
	if cfg.TLS.Enable {
		log.Info("enabling TLS", "insecure", cfg.TLS.Insecure)

		tlsConfig := &tls.Config{
			InsecureSkipVerify: cfg.TLS.Insecure,
		}

		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load TLS cert/key: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
			log.Info("loaded TLS client certificate", "certFile", cfg.TLS.CertFile)
		}

		if cfg.TLS.CAFile != "" {
			opts = append(opts, nats.RootCAs(cfg.TLS.CAFile))
			log.Info("loaded TLS CA certificate", "caFile", cfg.TLS.CAFile)
		}

		opts = append(opts, nats.Secure(tlsConfig))
	}

	return opts, nil
}
