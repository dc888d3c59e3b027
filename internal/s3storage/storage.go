package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/LinkSeal/internal/config"
	"github.com/dharsanguruparan/LinkSeal/internal/model"
	"github.com/dharsanguruparan/LinkSeal/internal/storage"
)

const metaName = "Name"

// Storage keeps uploaded objects in a single MinIO/S3 bucket, keyed by
// object id. The original file name travels as user metadata.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

var _ storage.ObjectStore = (*Storage)(nil)

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.S3Region,
	}, nil
}

// EnsureBucket makes sure the bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads the object. obj.Size must already be known.
func (s *Storage) Put(ctx context.Context, obj *model.Object, r io.Reader) error {
	opts := minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: map[string]string{metaName: obj.Name},
	}
	info, err := s.client.PutObject(ctx, s.bucket, objectKey(obj.ID), r, obj.Size, opts)
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	obj.Size = info.Size
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = info.LastModified.UTC()
	}
	return nil
}

// Stat reads the object's metadata without fetching its content.
func (s *Storage) Stat(ctx context.Context, id string) (*model.Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectKey(id), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return &model.Object{
		ID:          id,
		Name:        userMeta(info.UserMetadata, metaName),
		Size:        info.Size,
		ContentType: info.ContentType,
		CreatedAt:   info.LastModified.UTC(),
	}, nil
}

// Get stats the object and returns a seekable reader over it.
func (s *Storage) Get(ctx context.Context, id string) (*model.Object, io.ReadSeekCloser, error) {
	meta, err := s.Stat(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return meta, obj, nil
}

func objectKey(id string) string {
	return "objects/" + id
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}

func userMeta(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
