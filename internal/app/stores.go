package app

import (
	"fmt"
	"path/filepath"

	"github.com/guttosm/xetrapulse/config"
	"github.com/guttosm/xetrapulse/internal/logger"
	"github.com/guttosm/xetrapulse/internal/objectstore"
	"github.com/guttosm/xetrapulse/internal/storage"
)

// Stores are the two buckets of a deployment.
type Stores struct {
	Source objectstore.Store
	Target objectstore.Store
}

// OpenStores builds the source and target stores for the configured backend.
//
// Backends:
//   - fs:       <FS_ROOT>/<bucket> directories.
//   - s3:       one minio client per bucket against S3_ENDPOINT.
//   - postgres: the objects table, partitioned by bucket name.
//
// The returned cleanup releases backend resources and is never nil on success.
func OpenStores(cfg config.Config) (Stores, func(), error) {
	src, trg := cfg.Storage.SourceBucket, cfg.Storage.TargetBucket
	noop := func() {}

	switch cfg.Storage.Backend {
	case "fs":
		s := Stores{
			Source: objectstore.NewFS(filepath.Join(cfg.Storage.FSRoot, src)),
			Target: objectstore.NewFS(filepath.Join(cfg.Storage.FSRoot, trg)),
		}
		logger.L().Info().Str("backend", "fs").Str("root", cfg.Storage.FSRoot).Msg("stores ready")
		return s, noop, nil

	case "s3":
		s3cfg := objectstore.S3Config{
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Region:    cfg.Storage.S3.Region,
			UseSSL:    cfg.Storage.S3.UseSSL,
		}
		source, err := objectstore.NewS3(s3cfg, src)
		if err != nil {
			return Stores{}, nil, fmt.Errorf("source bucket %s: %w", src, err)
		}
		target, err := objectstore.NewS3(s3cfg, trg)
		if err != nil {
			return Stores{}, nil, fmt.Errorf("target bucket %s: %w", trg, err)
		}
		logger.L().Info().Str("backend", "s3").Str("endpoint", s3cfg.Endpoint).Msg("stores ready")
		return Stores{Source: source, Target: target}, noop, nil

	case "postgres":
		db, err := postgresOpener(cfg)
		if err != nil {
			return Stores{}, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		s := Stores{
			Source: storage.NewObjectRepository(db, src),
			Target: storage.NewObjectRepository(db, trg),
		}
		logger.L().Info().Str("backend", "postgres").Str("host", cfg.Postgres.Host).Msg("stores ready")
		return s, func() { _ = db.Close() }, nil

	default:
		return Stores{}, nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
