package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"evmlens/internal/config"
	"evmlens/internal/sigdb"
)

// openSigdb merges the built-in dataset with Postgres and the HTTP API behind
// a lookup cache. The returned close
// function releases the Postgres pool.
func openSigdb(ctx context.Context, cfg config.SigdbConfig, logger *zap.Logger) (*sigdb.Cache, func(), error) {
	chain := sigdb.Merge{sigdb.NewBuiltin()}
	closeFn := func() {}

	if cfg.PGDSN != "" {
		pg, err := sigdb.NewPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect signature postgres: %w", err)
		}
		chain = append(chain, pg)
		closeFn = pg.Close
	}

	if !cfg.Offline && cfg.URL != "" {
		chain = append(chain, sigdb.NewHTTP(sigdb.HTTPConfig{
			BaseURL:      cfg.URL,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, logger))
	}

	logger.Debug("signature databases ready",
		zap.Int("backends", len(chain)),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("offline", cfg.Offline),
	)

	return sigdb.NewCache(chain, cfg.CacheMB, cfg.CacheTTL), closeFn, nil
}

func logCacheStats(logger *zap.Logger, cache *sigdb.Cache) {
	hits, misses := cache.Stats()
	logger.Debug("signature cache", zap.Int64("hits", hits), zap.Int64("misses", misses))
}
