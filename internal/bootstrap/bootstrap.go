// Package bootstrap builds the retrieval engine from the environment.
// The server, the worker and the MCP entrypoint all construct their
// engine here so they agree on storage, provider and policy settings.
package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/chunker"
	"github.com/berryware/berryrag/pkg/embedder/auto"
	"github.com/berryware/berryrag/pkg/rag"
	"github.com/berryware/berryrag/pkg/store"
	"github.com/berryware/berryrag/pkg/store/memory"
	pgxstore "github.com/berryware/berryrag/pkg/store/pgx"
)

// NewEngine resolves storage and embedding provider from the
// environment and wires them into an engine. defaultAdapter is the
// store picked when STORE_ADAPTER is unset; the returned pool is nil
// when the in-memory store is selected.
func NewEngine(ctx context.Context, defaultAdapter string) (*rag.Engine, *pgxpool.Pool, error) {
	var documentStorage store.DocumentStorage
	var pool *pgxpool.Pool

	switch util.GetEnvString("STORE_ADAPTER", defaultAdapter) {
	case "memory":
		documentStorage = memory.NewMemoryStorage()
	default:
		databaseURL := util.GetEnv("DATABASE_URL")
		if err := pgxstore.RunMigrations(databaseURL); err != nil {
			return nil, nil, err
		}

		cfg, err := pgxpool.ParseConfig(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}

		documentStorage, err = pgxstore.NewDocumentDBStorageWithConnection(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	provider, err := auto.Resolve(ctx, auto.FromEnv())
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}

	c, err := chunker.New(chunker.ChunkerParams{
		Size:    util.GetEnvInt("CHUNK_SIZE", 0),
		Overlap: util.GetEnvInt("CHUNK_OVERLAP", 0),
	})
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}

	engine, err := rag.NewEngine(ctx, rag.NewEngineParams{
		Storage:      documentStorage,
		Provider:     provider,
		Chunker:      c,
		Policy:       store.PolicyFromEnv(),
		EmbedBatch:   util.GetEnvInt("EMBED_BATCH", 0),
		EmbedWorkers: util.GetEnvInt("EMBED_WORKERS", 0),
	})
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}
	return engine, pool, nil
}
