package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the prefix object URLs are built from; defaults to the endpoint.
	PublicURL string
}

// MinioStore keeps objects in an S3-compatible bucket through minio-go.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	urlPrefix string
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     cfg.UseSSL,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		public = scheme + cfg.Endpoint
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		urlPrefix: public + "/" + cfg.Bucket,
	}, nil
}

func (m *MinioStore) Put(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	key := NewKey(ext)

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", minioTransferError("put", err)
	}

	return m.urlPrefix + "/" + key, nil
}

func (m *MinioStore) Get(ctx context.Context, url string) ([]byte, error) {
	key, err := keyFromURL(m.urlPrefix, url)
	if err != nil {
		return nil, newTransferError("get", 0, "", err)
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioTransferError("get", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, minioTransferError("get", err)
	}

	return data, nil
}

// EnsureBucket creates the bucket when it is missing.
func (m *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

func minioTransferError(op string, err error) *TransferError {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode != 0 {
		return newTransferError(op, resp.StatusCode, resp.Code+": "+resp.Message, err)
	}
	return newTransferError(op, 0, "", err)
}
