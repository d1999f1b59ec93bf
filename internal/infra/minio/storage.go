// Package minio implements the storage ports against a MinIO (or any
// S3-compatible) object store.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Storage struct {
	client       *miniogo.Client
	inputBucket  string
	outputBucket string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	InputBucket  string
	OutputBucket string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:       client,
		inputBucket:  cfg.InputBucket,
		outputBucket: cfg.OutputBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.inputBucket, s.outputBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) Download(ctx context.Context, sourcePath string) (entity.FileContent, error) {
	obj, err := s.client.GetObject(ctx, s.inputBucket, sourcePath, miniogo.GetObjectOptions{})
	if err != nil {
		return entity.FileContent{}, &port.StorageError{Op: "download", Path: sourcePath, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return entity.FileContent{}, &port.StorageError{Op: "download", Path: sourcePath, Err: err}
	}
	return entity.FileContent{Path: sourcePath, Content: data}, nil
}

func (s *Storage) Upload(ctx context.Context, content entity.FileContent, destinationPath string) error {
	_, err := s.client.PutObject(ctx, s.outputBucket, destinationPath,
		bytes.NewReader(content.Content), int64(len(content.Content)),
		miniogo.PutObjectOptions{ContentType: "application/zip"},
	)
	if err != nil {
		return &port.StorageError{Op: "upload", Path: destinationPath, Err: err}
	}
	return nil
}
