// Package minio implements the dataset store over an S3-compatible object
// bucket, the backend used when datasets are published by the data-prep
// pipeline to shared object storage.
package minio

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// Config holds connection parameters for the bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix scopes all dataset objects, e.g. "datasets/".
	Prefix string
	UseSSL bool
}

// ObjectAPI is the narrow slice of the MinIO client the store needs,
// abstracted for testing.
type ObjectAPI interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	GetObject(ctx context.Context, bucket, name string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// minioAPI adapts *minio.Client to ObjectAPI.
type minioAPI struct {
	client *minio.Client
}

func (a minioAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return a.client.ListObjects(ctx, bucket, opts)
}

func (a minioAPI) GetObject(ctx context.Context, bucket, name string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.client.GetObject(ctx, bucket, name, opts)
}

// Store reads datasets from one bucket prefix.
type Store struct {
	api    ObjectAPI
	cfg    Config
	logger logging.Logger
}

// New connects to the object store and verifies the bucket exists.
func New(ctx context.Context, cfg Config, log logging.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create object store client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "failed to reach object store").WithDetail(cfg.Endpoint)
	}
	if !exists {
		return nil, errors.New(errors.CodeStorageError, "dataset bucket does not exist").WithDetail(cfg.Bucket)
	}

	log.Info("object store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
	)
	return &Store{api: minioAPI{client: client}, cfg: cfg, logger: log}, nil
}

// NewWithAPI constructs a Store over a pre-built ObjectAPI; used by tests.
func NewWithAPI(api ObjectAPI, cfg Config, log logging.Logger) *Store {
	return &Store{api: api, cfg: cfg, logger: log}
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context) ([]storage.DatasetKey, error) {
	var keys []storage.DatasetKey
	for obj := range s.api.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    s.cfg.Prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.CodeStorageError, "failed to list dataset objects")
		}
		name := strings.TrimPrefix(obj.Key, s.cfg.Prefix)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		key, ok := storage.ParseKey(name)
		if !ok {
			s.logger.Debug("skipping non-dataset object", logging.String("object", obj.Key))
			continue
		}
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Filename() < keys[j].Filename()
	})
	return keys, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key storage.DatasetKey) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.cfg.Bucket, s.cfg.Prefix+key.Filename(), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to open dataset object").WithDetail(key.String())
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// The client defers existence checks until the first read.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, errors.New(errors.CodeDatasetNotFound, "dataset not found").WithDetail(key.String())
		}
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read dataset object").WithDetail(key.String())
	}
	return data, nil
}
