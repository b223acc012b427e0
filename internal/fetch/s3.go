package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioGetter struct {
	client *minio.Client
}

// NewS3Getter builds an ObjectGetter backed by minio-go. endpoint may be a
// bare host or a URL; an https scheme forces TLS.
func NewS3Getter(endpoint, accessKey, secretKey string, useSSL bool) (ObjectGetter, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
		if u.Scheme == "https" {
			useSSL = true
		} else if u.Scheme == "http" {
			useSSL = false
		}
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioGetter{client: client}, nil
}

func (m *minioGetter) Get(ctx context.Context, bucket, key, dest string) error {
	return m.client.FGetObject(ctx, bucket, key, dest, minio.GetObjectOptions{})
}
