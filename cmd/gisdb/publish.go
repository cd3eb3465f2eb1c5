package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/gisdb"
	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/blobstore/minio"
	"github.com/hupe1980/gisdb/blobstore/s3"
)

var errNoDestination = errors.New("no destination: set GISDB_MINIO_ENDPOINT or GISDB_S3_BUCKET")

func newPublishCmd(a *app) *cobra.Command {
	var ensureBucket bool

	cmd := &cobra.Command{
		Use:   "publish <dbFile> [name]",
		Short: "Upload a database file to S3 or MinIO.",
		Long: `Upload a database file to object storage.

MinIO is used when GISDB_MINIO_ENDPOINT is set, S3 when GISDB_S3_BUCKET is
set. The blob name defaults to the base name of the database file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (retErr error) {
			ctx := cmd.Context()
			dbFile := args[0]
			name := filepath.Base(dbFile)
			if len(args) == 2 {
				name = args[1]
			}

			dst, err := a.destination(ctx, ensureBucket)
			if err != nil {
				return err
			}

			mc, stopMetrics, err := a.metrics(ctx)
			if err != nil {
				return err
			}
			defer stopMetrics()

			db, err := gisdb.Open(ctx, gisdb.Local(dbFile), a.cfg.options(a.logger, mc)...)
			if err != nil {
				return err
			}
			defer func() {
				retErr = errors.Join(retErr, db.Close())
			}()

			n, err := db.Publish(ctx, dst, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d bytes)\n", name, n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ensureBucket, "ensure-bucket", false, "Create the MinIO bucket if it does not exist.")
	return cmd
}

func (a *app) destination(ctx context.Context, ensureBucket bool) (blobstore.BlobStore, error) {
	switch {
	case a.cfg.MinioEndpoint != "":
		if a.cfg.MinioBucket == "" {
			return nil, errors.New("GISDB_MINIO_BUCKET is required with GISDB_MINIO_ENDPOINT")
		}
		store, err := minio.New(a.cfg.MinioEndpoint, a.cfg.MinioBucket,
			minio.WithCredentials(a.cfg.MinioAccessKey, a.cfg.MinioSecretKey),
			minio.WithSecure(a.cfg.MinioSecure),
			minio.WithPrefix(a.cfg.S3Prefix),
		)
		if err != nil {
			return nil, err
		}
		if ensureBucket {
			if err := store.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		return store, nil

	case a.cfg.S3Bucket != "":
		opts := []s3.Option{s3.WithPrefix(a.cfg.S3Prefix)}
		if a.cfg.S3Region != "" {
			opts = append(opts, s3.WithRegion(a.cfg.S3Region))
		}
		if a.cfg.S3Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(a.cfg.S3Endpoint))
		}
		return s3.New(ctx, a.cfg.S3Bucket, opts...)
	}
	return nil, errNoDestination
}
