// Package s3 stores plot style overrides as objects in an S3 bucket. S3 has
// no change feed, so processes sharing a bucket pick up each other's edits
// on their next reload.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

// Config holds the S3 backend settings
type Config struct {
	Bucket         string `json:"bucket" yaml:"bucket"`
	Prefix         string `json:"prefix" yaml:"prefix"`
	Region         string `json:"region" yaml:"region"`
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	ForcePathStyle bool   `json:"force_path_style" yaml:"force_path_style"`
	AccessKey      string `json:"access_key" yaml:"access_key"`
	SecretKey      string `json:"secret_key" yaml:"secret_key"`
}

type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements store.KVStore on S3
type Store struct {
	client objectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// New loads the AWS configuration and builds a client
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 store: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return newWithClient(client, cfg, logger), nil
}

func newWithClient(client objectAPI, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With(slog.String("module", "store/s3"), slog.String("bucket", cfg.Bucket)),
	}
}

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key + ".json"
	}
	return path.Join(s.prefix, key+".json")
}

// Get downloads the object for key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("s3 store: get %s: %w", s.objectKey(key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 store: reading %s: %w", s.objectKey(key), err)
	}
	return data, nil
}

// Put uploads value as the object for key
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	}
	if origin := store.OriginFrom(ctx); origin != "" {
		input.Metadata = map[string]string{"origin": origin}
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 store: put %s: %w", s.objectKey(key), err)
	}
	s.logger.Debug("object written", slog.String("key", s.objectKey(key)))
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
