package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/pgraph"
	"github.com/hupe1980/pgraph/blobstore"
	miniostore "github.com/hupe1980/pgraph/blobstore/minio"
	s3store "github.com/hupe1980/pgraph/blobstore/s3"
	"github.com/hupe1980/pgraph/properties"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	store       string
	endpoint    string
	region      string
	insecure    bool
	compression string
	backend     string
	propsDir    string
	ioLimit     int
	concurrency int
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var f globalFlags
	cmd := &cobra.Command{
		Use:           "pgraph",
		Short:         "Convert and inspect property graph dumps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.store, "store", "s", "", "dump location: directory, s3://bucket/prefix or minio://endpoint/bucket/prefix")
	pf.StringVar(&f.endpoint, "s3-endpoint", "", "S3-compatible endpoint for s3:// stores")
	pf.StringVar(&f.region, "region", "", "AWS region for s3:// stores")
	pf.BoolVar(&f.insecure, "insecure", false, "use plain HTTP for minio:// stores")
	pf.StringVar(&f.compression, "compression", "none", "segment compression for dumps: none, lz4 or zstd")
	pf.StringVar(&f.backend, "backend", "array", "edge record backend: array or binary")
	pf.StringVar(&f.propsDir, "props-dir", "", "keep properties in a Badger database in this directory")
	pf.IntVar(&f.ioLimit, "io-limit", 0, "throttle dump and restore to this many bytes per second")
	pf.IntVar(&f.concurrency, "concurrency", pgraph.DefaultDumpConcurrency, "parallel blob transfers")
	pf.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	_ = cmd.MarkPersistentFlagRequired("store")

	cmd.AddCommand(
		newImportCmd(&f),
		newExportCmd(&f),
		newStatsCmd(&f),
	)
	return cmd
}

// graphOptions translates flags into graph options. A Badger property store
// opened here is closed with the graph.
func (f *globalFlags) graphOptions() ([]pgraph.Option, error) {
	comp, err := pgraph.ParseCompression(f.compression)
	if err != nil {
		return nil, err
	}
	backend, err := pgraph.ParseBackend(f.backend)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger := pgraph.NewTextLogger(level)

	opts := []pgraph.Option{
		pgraph.WithCompression(comp),
		pgraph.WithBackend(backend),
		pgraph.WithIOLimit(f.ioLimit),
		pgraph.WithDumpConcurrency(f.concurrency),
		pgraph.WithLogger(logger),
	}
	if f.propsDir != "" {
		ps, err := properties.NewBadgerStore(properties.BadgerOptions{
			Dir:    f.propsDir,
			Logger: logger.Logger,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, pgraph.WithPropertyStore(ps))
	}
	return opts, nil
}

func (f *globalFlags) openStore(ctx context.Context) (blobstore.Store, error) {
	if !strings.Contains(f.store, "://") {
		if err := os.MkdirAll(f.store, 0o755); err != nil {
			return nil, err
		}
		return blobstore.NewLocalStore(f.store), nil
	}

	u, err := url.Parse(f.store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil
	case "s3":
		opts := []s3store.Option{s3store.WithPrefix(strings.Trim(u.Path, "/"))}
		if f.region != "" {
			opts = append(opts, s3store.WithRegion(f.region))
		}
		if f.endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(f.endpoint))
		}
		return s3store.New(ctx, u.Host, opts...)
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("store %q: missing bucket", f.store)
		}
		client, err := minio.New(u.Host, &minio.Options{
			Creds:  credentials.NewEnvMinio(),
			Secure: !f.insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		return miniostore.NewStore(client, bucket, prefix), nil
	default:
		return nil, fmt.Errorf("store %q: unsupported scheme %q", f.store, u.Scheme)
	}
}

func (f *globalFlags) restore(ctx context.Context) (*pgraph.Graph, error) {
	store, err := f.openStore(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := f.graphOptions()
	if err != nil {
		return nil, err
	}
	return pgraph.Restore(ctx, store, opts...)
}
