package mongo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
	"go.uber.org/zap"
)

const defaultDatabase = "eventsink"

// client owns the driver connection of the cell store.
type client struct {
	client   *mongo.Client
	database *mongo.Database
	conf     Config
	log      *zap.Logger
}

func newClient(log *zap.Logger, conf Config) (*client, error) {
	if err := validateConfig(conf); err != nil {
		return nil, err
	}

	clientOptions := options.Client().
		ApplyURI(buildURI(conf)).
		SetMaxPoolSize(conf.MaxPoolSize).
		SetMinPoolSize(conf.MinPoolSize).
		SetMaxConnIdleTime(conf.MaxConnIdleTime).
		SetServerSelectionTimeout(conf.ServerSelectTimeout).
		SetMonitor(otelmongo.NewMonitor())

	// Connect does no I/O; connectivity is checked by ping.
	c, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &client{
		client:   c,
		database: c.Database(lo.Ternary(conf.Database != "", conf.Database, defaultDatabase)),
		conf:     conf,
		log:      log,
	}, nil
}

func validateConfig(conf Config) error {
	if conf.ConnectionString != "" {
		return nil
	}
	if conf.Host == "" || conf.Port == 0 || conf.Database == "" {
		return fmt.Errorf("invalid mongo configuration: host, port and database are required")
	}
	return nil
}

func (c *client) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.conf.ConnectTimeout)
	defer cancel()

	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	c.log.Info("connected to mongo",
		zap.String("host", c.conf.Host),
		zap.Int("port", c.conf.Port),
		zap.String("database", c.conf.Database),
		zap.Uint64("max-pool-size", c.conf.MaxPoolSize),
		zap.Duration("query-timeout", c.conf.QueryTimeout),
	)
	return nil
}

func (c *client) disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.conf.ConnectTimeout)
	defer cancel()

	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	c.log.Info("disconnected from mongo")
	return nil
}

func buildURI(conf Config) string {
	if conf.ConnectionString != "" {
		return conf.ConnectionString
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Path:   "/" + conf.Database,
	}
	if conf.Username != "" {
		u.User = url.UserPassword(conf.Username, conf.Password)
	}

	params := url.Values{}
	if conf.ReplicaSet != "" {
		params.Set("replicaSet", conf.ReplicaSet)
	}
	if conf.DirectConnection {
		params.Set("directConnection", "true")
	}
	u.RawQuery = params.Encode()

	return u.String()
}
