package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// R2Config holds the S3-compatible endpoint settings for Cloudflare R2.
type R2Config struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
}

// Complete reports whether every setting needed to reach the bucket is present.
func (c R2Config) Complete() bool {
	return c.EndpointURL != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// R2Storage stores objects in an R2 (S3 API) bucket. Objects stay private and
// are shared through presigned GET URLs.
type R2Storage struct {
	bucket    string
	client    s3API
	presigner presignAPI
	newName   NameFunc
	logger    zerolog.Logger
}

// NewR2Storage builds an S3 client pointed at the R2 endpoint.
func NewR2Storage(cfg R2Config, lgr zerolog.Logger) (*R2Storage, error) {
	if !cfg.Complete() {
		return nil, errors.New("r2 storage requires endpoint, access key, secret key and bucket")
	}

	client := s3.New(s3.Options{
		Region:       "auto",
		BaseEndpoint: aws.String(strings.TrimRight(cfg.EndpointURL, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	})

	lgr.Info().Str("bucket", cfg.BucketName).Msg("R2 storage client initialized")
	return &R2Storage{
		bucket:    cfg.BucketName,
		client:    client,
		presigner: s3.NewPresignClient(client),
		newName:   randomHex,
		logger:    lgr,
	}, nil
}

// Backend implements FileStorage
func (r *R2Storage) Backend() Backend {
	return BackendR2
}

// Save uploads the data under a generated key.
func (r *R2Storage) Save(ctx context.Context, req SaveRequest) (*Object, error) {
	key := path.Join(req.Dir, req.NamePrefix+r.newName()+req.Ext)
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.Data),
		ContentLength: aws.Int64(int64(len(req.Data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to upload file to R2")
		return nil, fmt.Errorf("r2 put %s: %w", key, err)
	}

	r.logger.Info().Str("key", key).Int("size", len(req.Data)).Msg("File uploaded to R2")
	return &Object{
		Key:         key,
		Backend:     BackendR2,
		Size:        int64(len(req.Data)),
		ContentType: contentType,
	}, nil
}

// Open implements FileStorage
func (r *R2Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("r2 get %s: %w", key, err)
	}
	return out.Body, nil
}

// Delete implements FileStorage
func (r *R2Storage) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to delete file from R2")
		return fmt.Errorf("r2 delete %s: %w", key, err)
	}
	return nil
}

// Exists implements FileStorage
func (r *R2Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("r2 head %s: %w", key, err)
	}
	return true, nil
}

// URL returns a presigned GET URL valid for ttl.
func (r *R2Storage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("r2 presign %s: %w", key, err)
	}
	return req.URL, nil
}
