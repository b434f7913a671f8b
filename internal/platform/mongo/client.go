// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mongo provides a managed MongoDB client and database handle for the
// admin API.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It manages the physical
// connection pool and hands out the [*mongo.Database] that repositories in the
// domain packages are built on.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taibuivan/modgate/internal/platform/constants"
)

// Opinionated pool settings for the admin workload.
const (
	// maxPoolSize is the maximum number of connections in the pool.
	maxPoolSize = 25
	// minPoolSize keeps a warm set of connections to avoid cold-start latency.
	minPoolSize = 2
	// maxConnIdleTime closes connections that have been idle too long.
	maxConnIdleTime = 10 * time.Minute
	// connectTimeout is the maximum time allowed to establish a new connection.
	connectTimeout = 10 * time.Second
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
	// disconnectTimeout bounds the graceful pool shutdown.
	disconnectTimeout = 5 * time.Second
)

// Data encapsulates the client and the selected database.
type Data struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect creates and validates a new MongoDB connection pool.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - uri: A mongodb:// or mongodb+srv:// connection string.
//   - database: Name of the database used by every repository.
//   - logger: Structured logger for pool-level events.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Data, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName(constants.AppName).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize).
		SetMaxConnIdleTime(maxConnIdleTime).
		SetTimeout(constants.GlobalRequestTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to connect: %w", err)
	}

	data := &Data{client: client, db: client.Database(database)}

	// Validate that we can actually reach the database.
	if err := data.Ping(ctx); err != nil {
		_ = data.Close()
		return nil, err
	}

	logger.Info("mongo client connected",
		slog.String("database", database),
		slog.Int("max_pool_size", maxPoolSize),
	)

	return data, nil
}

// DB returns the MongoDB database handle.
func (d *Data) DB() *mongo.Database {
	return d.db
}

// Ping verifies that the primary is reachable.
func (d *Data) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: ping failed: %w", err)
	}

	return nil
}

// Close disconnects the client, waiting for in-use connections to be returned.
func (d *Data) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return d.client.Disconnect(ctx)
}
