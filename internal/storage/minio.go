package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"carevault/internal/config"
)

// keyPrefix is the shared prefix of all generated object keys. A
// reconciliation sweep can list this prefix and parse the leading unix-nano
// timestamp to find aged orphans.
const keyPrefix = "documents/"

// minioStorage implements the Storage interface using an S3-compatible
// backend (MinIO, AWS S3, etc.). It is safe for concurrent use by multiple
// goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
	useSSE bool
}

// NewMinIO creates a new S3-compatible storage client backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStorage{client: cli, bucket: cfg.Bucket, useSSE: cfg.UseSSE}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// generateKey builds a new opaque object key: timestamp, a uuid, and the
// extension of the suggested name.
func generateKey(suggestedName string) string {
	ext := filepath.Ext(suggestedName)
	return keyPrefix + strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + uuid.NewString() + ext
}

// Put uploads an object under a freshly generated key using streaming I/O
// only (no local disk). Server-side at-rest encryption is requested when
// the connection supports it, in addition to the application-level cipher.
func (m *minioStorage) Put(ctx context.Context, r io.Reader, suggestedName, contentType string, size int64) (string, error) {
	key := generateKey(suggestedName)

	putOpts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-filename": suggestedName},
	}
	// SSE-S3 requires TLS on the connection.
	if m.useSSE {
		putOpts.ServerSideEncryption = encrypt.NewSSE()
	}

	if _, err := m.client.PutObject(ctx, m.bucket, key, r, size, putOpts); err != nil {
		return "", err
	}
	return key, nil
}

// Get downloads an object content as a ReadCloser along with basic info.
func (m *minioStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	// Fetch stat to populate info; avoid reading content into memory.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}
	info := ObjectInfo{
		Key:          key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		Metadata:     st.UserMetadata,
	}
	return obj, info, nil
}

// Delete removes an object by key. A missing object is reported as
// ErrObjectNotFound so callers can decide whether absence matters.
func (m *minioStorage) Delete(ctx context.Context, key string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrObjectNotFound
		}
		return err
	}
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// PresignGet generates a pre-signed GET URL that forces the given filename
// via response-content-disposition. The URL grants no write or delete
// capability and expires after PresignExpiry.
func (m *minioStorage) PresignGet(ctx context.Context, key, downloadFilename string) (string, time.Time, error) {
	reqParams := url.Values{}
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename))

	expiresAt := time.Now().Add(PresignExpiry)
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, PresignExpiry, reqParams)
	if err != nil {
		return "", time.Time{}, err
	}
	return u.String(), expiresAt, nil
}
