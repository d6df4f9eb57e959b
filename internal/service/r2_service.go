package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/velvetqueue/configs"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// R2Service uploads media to a Cloudflare R2 bucket served from a public URL.
type R2Service struct {
	config config.R2
	client *s3.Client
}

func NewR2Service(ctx context.Context, cfg config.R2) (*R2Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})

	return &R2Service{config: cfg, client: client}, nil
}

func (r *R2Service) Name() string {
	return "r2"
}

// Upload stores data under a random key and returns its public URL.
func (r *R2Service) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := "media/" + id + strings.ToLower(path.Ext(filename))

	if err := r.UploadToR2(ctx, key, data, contentType(data)); err != nil {
		return "", err
	}
	return r.config.PublicURL + "/" + key, nil
}

func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, filetype string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(filetype),
	}

	_, err := r.client.PutObject(ctx, input)
	if err != nil {
		slog.Error("failed to upload to r2", "key", key, "err", err)
		return err
	}

	return nil
}

func contentType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
