package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig describes an S3 compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Minio stores blobs in a S3 compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio wraps an existing client.
func NewMinio(client *minio.Client, bucket string) *Minio {
	return &Minio{
		client: client,
		bucket: bucket,
	}
}

// DialMinio connects to the endpoint and creates the bucket when missing.
func DialMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return NewMinio(client, cfg.Bucket), nil
}

// objectName spreads objects over two directory levels.
func objectName() string {
	str := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("images/%s/%s/%s", str[len(str)-2:], str[len(str)-4:len(str)-2], str)
}

func (m *Minio) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	name := objectName()
	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (m *Minio) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, "images/") {
		return ErrInvalidRef
	}

	// check object
	_, err := m.client.StatObject(ctx, m.bucket, ref, minio.StatObjectOptions{})
	if isMinioNotFoundErr(err) {
		return ErrNotFound
	} else if err != nil {
		return err
	}

	return m.client.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{})
}

func (m *Minio) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if !strings.HasPrefix(ref, "images/") {
		return nil, "", ErrInvalidRef
	}

	obj, err := m.client.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	defer obj.Close()

	info, err := obj.Stat()
	if isMinioNotFoundErr(err) {
		return nil, "", ErrNotFound
	} else if err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", err
	}
	return data, info.ContentType, nil
}

func isMinioNotFoundErr(err error) bool {
	return minio.ToErrorResponse(err).StatusCode == http.StatusNotFound
}
