package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	"github.com/wolfman30/psychwebmd-intake/internal/drafts"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

const submitLockTTL = 30 * time.Second

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// DraftBackend is the draft store selected by DRAFT_BACKEND plus the submit
// guard that goes with it.
type DraftBackend struct {
	Store wizard.DraftStore
	Guard wizard.SubmitGuard
	Close func()
}

// BuildDraftStore selects the draft store. Redis and DynamoDB also provide a
// cross-replica submit lock; the other backends use an in-process guard.
func BuildDraftStore(ctx context.Context, cfg *appconfig.Config, dynamoClient *dynamodb.Client, logger *logging.Logger) (*DraftBackend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.DraftRetentionEnabled() {
		logger.Info("draft retention disabled; drafts live until cleared")
	}

	switch cfg.DraftBackend {
	case "", appconfig.BackendMemory:
		logger.Info("using in-memory draft store", "ttl", cfg.DraftTTL.String())
		return &DraftBackend{
			Store: drafts.NewMemoryStore(cfg.DraftTTL),
			Guard: wizard.NewLocalGuard(),
			Close: func() {},
		}, nil
	case appconfig.BackendRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, fmt.Errorf("bootstrap: redis draft backend selected but %s is unreachable", cfg.RedisAddr)
		}
		logger.Info("using redis draft store", "addr", cfg.RedisAddr, "ttl", cfg.DraftTTL.String())
		return &DraftBackend{
			Store: drafts.NewRedisStore(client, cfg.DraftTTL),
			Guard: drafts.NewRedisSubmitLock(client, submitLockTTL),
			Close: func() { _ = client.Close() },
		}, nil
	case appconfig.BackendDynamoDB:
		if dynamoClient == nil {
			return nil, fmt.Errorf("bootstrap: dynamodb draft backend selected without a client")
		}
		logger.Info("using dynamodb draft store", "table", cfg.DraftsTable, "ttl", cfg.DraftTTL.String())
		return &DraftBackend{
			Store: drafts.NewDynamoStore(dynamoClient, cfg.DraftsTable, cfg.DraftTTL, logger),
			Guard: drafts.NewDynamoSubmitLock(dynamoClient, cfg.DraftsTable, submitLockTTL),
			Close: func() {},
		}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown draft backend %q", cfg.DraftBackend)
	}
}
