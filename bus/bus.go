// Package bus runs an in-process NATS server with JetStream so match
// telemetry has a KV bucket without opening any sockets.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const readyTimeout = 5 * time.Second

// Broker bundles the embedded server and the in-process client connection
type Broker struct {
	Server *server.Server
	Conn   *nats.Conn
	JS     jetstream.JetStream
	logger *log.Logger
}

// StartEmbedded starts a JetStream-enabled server that only accepts
// in-process connections. An empty storeDir lets the server pick a temp dir.
func StartEmbedded(storeDir string, logger *log.Logger) (*Broker, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("bus")

	opts := &server.Options{
		ServerName: "arena-duel",
		JetStream:  true,
		StoreDir:   storeDir,
		DontListen: true,
		NoLog:      true,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready after %s", readyTimeout)
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS server: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	logger.Debug("embedded broker started", "storeDir", storeDir)
	return &Broker{Server: ns, Conn: nc, JS: js, logger: logger}, nil
}

// OpenBucket creates the named in-memory KV bucket or binds to it if it exists
func (b *Broker) OpenBucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	kv, err := b.JS.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "arena duel match telemetry",
		History:     1,
		Storage:     jetstream.MemoryStorage,
	})
	if errors.Is(err, jetstream.ErrBucketExists) {
		kv, err = b.JS.KeyValue(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open KV bucket %s: %w", name, err)
	}

	b.logger.Debug("bucket ready", "bucket", name)
	return kv, nil
}

// Close drops the client connection and stops the server
func (b *Broker) Close() {
	if b.Conn != nil {
		b.Conn.Close()
	}
	if b.Server != nil {
		b.Server.Shutdown()
		b.Server.WaitForShutdown()
	}
	b.logger.Debug("embedded broker stopped")
}
