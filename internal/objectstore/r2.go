package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/logger"
)

// ErrNotConfigured is returned by New when the R2 settings are incomplete.
var ErrNotConfigured = errors.New("object store is not configured")

// Config describes an S3 compatible bucket, Cloudflare R2 by default.
type Config struct {
	Bucket    string
	Endpoint  string
	AccountID string
	AccessKey string
	SecretKey string
	// PublicURL is the base under which uploaded keys are served.
	PublicURL string
	Prefix    string
	Timeout   time.Duration
}

// FromConfig maps the application settings onto a store config.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Bucket:    cfg.R2Bucket,
		Endpoint:  cfg.R2Endpoint,
		AccountID: cfg.R2AccountID,
		AccessKey: cfg.R2AccessKey,
		SecretKey: cfg.R2SecretKey,
		PublicURL: cfg.R2PublicURL,
		Prefix:    "posts",
		Timeout:   cfg.HTTPTimeout,
	}
}

// Store uploads generated images to a bucket.
type Store struct {
	client    *s3.Client
	bucket    string
	prefix    string
	publicURL string
	timeout   time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if cfg.Bucket == "" || endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = endpoint + "/" + cfg.Bucket
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	logger.Get().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", endpoint).
		Msg("Object store initialized")

	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: publicURL,
		timeout:   timeout,
	}, nil
}

// Key builds a unique object key for an image of the given MIME type.
func (s *Store) Key(name, mimeType string) string {
	key := fmt.Sprintf("%s/%s-%s%s", time.Now().UTC().Format("2006/01/02"), slug(name), uuid.NewString()[:8], extension(mimeType))
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// Put uploads data under key and returns its public URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	url := s.publicURL + "/" + key
	logger.Get().Debug().Str("key", key).Int("bytes", len(data)).Msg("Uploaded object")
	return url, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "image"
	}
	return s
}
