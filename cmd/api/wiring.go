package main

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/quotecart/internal/quotecart"
	"github.com/angelmondragon/quotecart/internal/submission"
	"github.com/angelmondragon/quotecart/pkg/config"
	"github.com/angelmondragon/quotecart/pkg/db"
	"github.com/angelmondragon/quotecart/pkg/kvstore"
	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/pubsub"
	"github.com/angelmondragon/quotecart/pkg/redis"
)

// buildCartStorage selects the key-value backend carts persist to.
func buildCartStorage(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (quotecart.Storage, error) {
	switch cfg.Cart.StorageBackend() {
	case config.CartStorageMemory:
		return kvstore.NewMemoryWithTTL(cfg.Cart.TTL), nil
	case config.CartStorageRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("cart storage %q requires redis", config.CartStorageRedis)
		}
		store, err := kvstore.NewRedis(redisClient, cfg.Cart.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CartStorageDB:
		if dbClient == nil {
			return nil, fmt.Errorf("cart storage %q requires a database", config.CartStorageDB)
		}
		store, err := kvstore.NewGorm(dbClient.DB(), cfg.Cart.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cart storage %q", cfg.Cart.Storage)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildSubmitter returns the downstream submitter for the configured mode and
// whatever must be closed at shutdown.
func buildSubmitter(ctx context.Context, cfg *config.Config, logg *logger.Logger) (submission.Submitter, io.Closer, error) {
	switch cfg.Submission.Transport() {
	case config.SubmissionModeHTTP:
		opts := []submission.HTTPOption{}
		if cfg.Submission.APIToken != "" {
			opts = append(opts, submission.WithBearerToken(cfg.Submission.APIToken))
		}
		submitter, err := submission.NewHTTPSubmitter(cfg.Submission.APIBaseURL, cfg.Submission.Timeout, opts...)
		if err != nil {
			return nil, nil, err
		}
		return submitter, nopCloser{}, nil
	case config.SubmissionModePubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, err
		}
		submitter, err := submission.NewPubSubSubmitter(client.SubmissionPublisher())
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return submitter, client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported submission mode %q", cfg.Submission.Mode)
	}
}
