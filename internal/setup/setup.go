// Package setup builds the clients shared by the server and the worker from
// the environment.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/internal/storage"
	"github.com/OFFIS-RIT/annograph/backend/internal/util"
	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	oai "github.com/OFFIS-RIT/annograph/backend/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/annograph/backend/pkg/ai/openai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store/memory"
	pgstore "github.com/OFFIS-RIT/annograph/backend/pkg/store/pgx"
	s3store "github.com/OFFIS-RIT/annograph/backend/pkg/store/s3"

	"github.com/jackc/pgx/v5/pgxpool"
)

const archivePrefix = "archive"

// ModelClient creates the client selected by AI_ADAPTER.
func ModelClient() (ai.ModelClient, error) {
	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "ollama":
		client, err := oai.NewClient(oai.NewClientParams{
			ResponseModel: util.GetEnv("AI_RESPONSE_MODEL"),
			ParsingModel:  util.GetEnv("AI_PARSING_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 4)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, nil
	case "openai":
		return gai.NewClient(gai.NewClientParams{
			ResponseModel: util.GetEnv("AI_RESPONSE_MODEL"),
			ParsingModel:  util.GetEnv("AI_PARSING_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}

// SessionStore creates the primary store selected by STORAGE_ADAPTER. The
// returned function releases its connections.
func SessionStore(ctx context.Context) (store.SessionStore, func(), error) {
	switch adapter := util.GetEnvString("STORAGE_ADAPTER", "memory"); adapter {
	case "memory":
		return memory.New(), func() {}, nil
	case "pgx":
		databaseURL := util.GetEnv("DATABASE_URL")
		if dir := util.GetEnv("MIGRATIONS_PATH"); dir != "" {
			if err := pgstore.Migrate(databaseURL, dir); err != nil {
				return nil, nil, err
			}
		}

		pool, err := util.RetryWithBackoff(ctx, 5, time.Second, func(ctx context.Context) (*pgxpool.Pool, error) {
			pool, err := pgxpool.New(ctx, databaseURL)
			if err != nil {
				return nil, err
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				return nil, err
			}
			return pool, nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("[Store] using PostgreSQL session store")
		return pgstore.NewSessionDBStorageWithConnection(pool), pool.Close, nil
	case "s3":
		bucket, err := storage.NewBucketFromEnv(ctx)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("[Store] using S3 session store")
		return s3store.New(bucket, util.GetEnvString("AWS_SESSION_PREFIX", "sessions")), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_ADAPTER %q", adapter)
	}
}

// ArchiveStore creates the S3 store archived sessions are copied to.
func ArchiveStore(ctx context.Context) (*s3store.Store, error) {
	bucket, err := storage.NewBucketFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return s3store.New(bucket, util.GetEnvString("AWS_ARCHIVE_PREFIX", archivePrefix)), nil
}
