// Package database owns the process-wide MongoDB handle. Acquire hands out
// the same ready *mongo.Database to every caller; the first caller triggers
// the dial and concurrent callers wait on that same attempt instead of racing
// to open independent connections.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectionError wraps a failed connection attempt. Callers treat it as a
// transient infrastructure failure; the manager retries from scratch on the
// next Acquire.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

var errNotConnected = errors.New("not connected")

// attempt is a single in-flight or completed connection attempt. Its fields
// are written once by the dialing goroutine before done is closed.
type attempt struct {
	done   chan struct{}
	client *mongo.Client
	db     *mongo.Database
	err    error
}

// Manager is the connection lifecycle manager. The zero value is not usable;
// use NewManager.
type Manager struct {
	url            string
	name           string
	connectTimeout time.Duration
	logger         *slog.Logger

	mu      sync.Mutex
	current *attempt

	// dial is swapped out in tests.
	dial func(ctx context.Context) (*mongo.Client, error)
}

// NewManager creates a Manager for the given MongoDB address and database
// name. No connection is made until the first Acquire.
func NewManager(url, name string, connectTimeout time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		url:            url,
		name:           name,
		connectTimeout: connectTimeout,
		logger:         logger,
	}
	m.dial = m.dialMongo
	return m
}

// Acquire returns the ready database handle, establishing the underlying
// connection on first call. Concurrent callers before readiness all wait on
// the same attempt; a failed attempt is not cached, so a later Acquire dials
// again. The context only bounds this caller's wait, not the dial itself.
func (m *Manager) Acquire(ctx context.Context) (*mongo.Database, error) {
	m.mu.Lock()
	att := m.current
	if att == nil {
		att = &attempt{done: make(chan struct{})}
		m.current = att
		go m.run(att)
	}
	m.mu.Unlock()

	select {
	case <-att.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if att.err != nil {
		return nil, att.err
	}
	return att.db, nil
}

// run performs one connection attempt and publishes its outcome.
func (m *Manager) run(att *attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), m.connectTimeout)
	defer cancel()

	client, err := m.dial(ctx)
	if err != nil {
		att.err = &ConnectionError{Cause: err}
		m.mu.Lock()
		if m.current == att {
			m.current = nil
		}
		m.mu.Unlock()
		m.logger.Error("mongodb connection failed", "error", err)
		close(att.done)
		return
	}

	att.client = client
	att.db = client.Database(m.name)
	m.logger.Info("connected to mongodb", "database", m.name)
	close(att.done)
}

// dialMongo connects, verifies the server is reachable, and installs the
// unique index on users.email. The index is the authoritative uniqueness
// guard for registration; the service-level existence check is only a fast
// path for a friendly error.
func (m *Manager) dialMongo(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.url))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	users := client.Database(m.name).Collection("users")
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping reports whether the current handle can reach the server. It does not
// trigger a new connection attempt.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.Lock()
	att := m.current
	m.mu.Unlock()
	if att == nil {
		return &ConnectionError{Cause: errNotConnected}
	}
	select {
	case <-att.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if att.err != nil {
		return att.err
	}
	return att.client.Ping(ctx, readpref.Primary())
}

// Shutdown closes the handle exactly once and resets state so a later
// Acquire re-establishes a connection. Calling it again after the handle is
// closed is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	att := m.current
	m.current = nil
	m.mu.Unlock()

	if att == nil {
		return nil
	}

	select {
	case <-att.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if att.err != nil || att.client == nil {
		return nil
	}
	if err := att.client.Disconnect(ctx); err != nil {
		return err
	}
	m.logger.Info("mongodb connection closed")
	return nil
}
