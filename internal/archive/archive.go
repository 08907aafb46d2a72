// Package archive copies export files to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"posadmin/internal/config"
)

var ErrDisabled = errors.New("archive is not configured")

// ObjectPutter is the slice of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

// New builds an Archiver from cfg. It returns ErrDisabled when no bucket is
// configured.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewWithClient(client ObjectPutter, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Key is the object key a file named name is stored under.
func (a *Archiver) Key(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Upload stores body under the prefixed key for name and returns the key.
func (a *Archiver) Upload(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if a == nil {
		return "", ErrDisabled
	}
	key := a.Key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	log.Info().Str("bucket", a.bucket).Str("key", key).Int("bytes", len(body)).Msg("export archived")
	return key, nil
}
