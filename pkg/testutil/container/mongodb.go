// Package container starts throwaway dependencies for integration tests.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultMongoImage = "mongo:7"

// MongoDBContainer is a running MongoDB container with a connected client.
type MongoDBContainer struct {
	Container        *mongodb.MongoDBContainer
	Client           *mongo.Client
	ConnectionString string
}

// MongoDBContainerOption configures StartMongoDBContainer.
type MongoDBContainerOption func(*mongoDBOptions)

type mongoDBOptions struct {
	image       string
	replicaSet  string
	pingTimeout time.Duration
}

// WithImage overrides the MongoDB image.
func WithImage(image string) MongoDBContainerOption {
	return func(o *mongoDBOptions) {
		o.image = image
	}
}

// WithReplicaSet starts MongoDB as a single-node replica set.
func WithReplicaSet(name string) MongoDBContainerOption {
	return func(o *mongoDBOptions) {
		o.replicaSet = name
	}
}

// StartMongoDBContainer starts MongoDB and waits until the client can ping it.
// The caller owns the returned container and must Terminate it.
func StartMongoDBContainer(ctx context.Context, opts ...MongoDBContainerOption) (*MongoDBContainer, error) {
	o := &mongoDBOptions{image: defaultMongoImage, pingTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(o)
	}

	var customizers []testcontainers.ContainerCustomizer
	if o.replicaSet != "" {
		customizers = append(customizers, mongodb.WithReplicaSet(o.replicaSet))
	}

	c, err := mongodb.Run(ctx, o.image, customizers...)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	mc := &MongoDBContainer{Container: c}
	if err := mc.connect(ctx, o.pingTimeout); err != nil {
		return nil, errors.Join(err, mc.Terminate(context.Background()))
	}
	return mc, nil
}

func (m *MongoDBContainer) connect(ctx context.Context, timeout time.Duration) error {
	uri, err := m.Container.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection string: %w", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	m.Client = client
	m.ConnectionString = uri

	// A freshly started replica set may still be electing a primary.
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx, nil)
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// Database returns a handle to the named database.
func (m *MongoDBContainer) Database(name string) *mongo.Database {
	return m.Client.Database(name)
}

// Terminate disconnects the client and removes the container.
func (m *MongoDBContainer) Terminate(ctx context.Context) error {
	var errs []error
	if m.Client != nil {
		if err := m.Client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect from mongodb: %w", err))
		}
	}
	if m.Container != nil {
		if err := testcontainers.TerminateContainer(m.Container); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate mongodb container: %w", err))
		}
	}
	return errors.Join(errs...)
}
