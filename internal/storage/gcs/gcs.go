// Package gcs stores keys as objects in a Cloud Storage bucket. It also
// receives workbook backups.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	kv "expensebook/internal/storage"
)

type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a client for bucket. Objects are named prefix+key. When
// credentialsFile is empty Application Default Credentials are used.
func New(ctx context.Context, bucket, prefix, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + name)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	rc, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}
	return string(data), nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.write(ctx, key, "text/plain; charset=utf-8", []byte(value))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Put uploads a backup file under backups/.
func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) error {
	return s.write(ctx, path.Join("backups", name), contentType, data)
}

func (s *Store) write(ctx context.Context, name, contentType string, data []byte) error {
	w := s.object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", name, err)
	}
	return nil
}
