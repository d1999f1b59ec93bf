// Package s3 implements the storage ports against AWS S3.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type StorageConfig struct {
	Region          string
	Endpoint        string // optional, for S3-compatible endpoints
	AccessKeyID     string
	SecretAccessKey string
	InputBucket     string
	OutputBucket    string
}

type Storage struct {
	client       *awss3.Client
	inputBucket  string
	outputBucket string
}

func NewStorage(ctx context.Context, cfg StorageConfig) (*Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Storage{
		client:       awss3.NewFromConfig(awsCfg, clientOpts...),
		inputBucket:  cfg.InputBucket,
		outputBucket: cfg.OutputBucket,
	}, nil
}

func (s *Storage) Download(ctx context.Context, sourcePath string) (entity.FileContent, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.inputBucket),
		Key:    aws.String(sourcePath),
	})
	if err != nil {
		return entity.FileContent{}, &port.StorageError{Op: "download", Path: sourcePath, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return entity.FileContent{}, &port.StorageError{Op: "download", Path: sourcePath, Err: err}
	}
	return entity.FileContent{Path: sourcePath, Content: data}, nil
}

func (s *Storage) Upload(ctx context.Context, content entity.FileContent, destinationPath string) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.outputBucket),
		Key:         aws.String(destinationPath),
		Body:        bytes.NewReader(content.Content),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return &port.StorageError{Op: "upload", Path: destinationPath, Err: err}
	}
	return nil
}
