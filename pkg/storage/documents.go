package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/synaptica-ai/medtriage/pkg/common/config"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
)

var ErrInvalidKey = errors.New("invalid document key")

// DocumentStore keeps uploaded clinical documents under flat keys.
type DocumentStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
}

// NewDocumentStore picks the backend named by DOCUMENT_BACKEND.
func NewDocumentStore(ctx context.Context, cfg *config.Config) (DocumentStore, error) {
	switch cfg.DocumentBackend {
	case "", "local":
		return NewLocalDocumentStore(cfg.UploadDir)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET is required for the s3 document backend")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.New(s3.Options{
			Region:       awsCfg.Region,
			Credentials:  awsCfg.Credentials,
			HTTPClient:   awsCfg.HTTPClient,
			BaseEndpoint: awsCfg.BaseEndpoint,
			UsePathStyle: true,
		})
		return NewS3DocumentStore(client, cfg.S3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown document backend %q", cfg.DocumentBackend)
	}
}

func checkKey(key string) error {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

type LocalDocumentStore struct {
	dir string
}

func NewLocalDocumentStore(dir string) (*LocalDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}
	return &LocalDocumentStore{dir: dir}, nil
}

func (s *LocalDocumentStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if err := checkKey(key); err != nil {
		return err
	}
	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logger.Log.WithFields(map[string]interface{}{
		"key":   key,
		"bytes": n,
	}).Debug("document stored")
	return nil
}

// Path returns where key is kept on disk.
func (s *LocalDocumentStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

type S3DocumentStore struct {
	client *s3.Client
	bucket string
}

func NewS3DocumentStore(client *s3.Client, bucket string) *S3DocumentStore {
	return &S3DocumentStore{client: client, bucket: bucket}
}

// Put buffers the body so the SDK can sign and checksum a seekable
// payload. Uploads are already bounded by the request body limit.
func (s *S3DocumentStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading document %s: %w", key, err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	logger.Log.WithFields(map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(data),
	}).Info("document uploaded")
	return nil
}
