package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint (path-style addressing is used when set).
	Endpoint  string
	PublicURL string
}

type S3Store struct {
	client    *s3.Client
	bucket    string
	urlPrefix string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RetryMaxAttempts = 1
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	prefix := strings.TrimRight(cfg.PublicURL, "/")
	switch {
	case prefix != "":
	case cfg.Endpoint != "":
		prefix = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		prefix = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, urlPrefix: prefix}, nil
}

func (s *S3Store) Put(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	key := NewKey(ext)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", s3TransferError("put", err)
	}

	return s.urlPrefix + "/" + key, nil
}

func (s *S3Store) Get(ctx context.Context, url string) ([]byte, error) {
	key, err := keyFromURL(s.urlPrefix, url)
	if err != nil {
		return nil, newTransferError("get", 0, "", err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3TransferError("get", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, newTransferError("get", 0, "", err)
	}
	return data, nil
}

func s3TransferError(op string, err error) *TransferError {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return newTransferError(op, re.HTTPStatusCode(), re.Error(), err)
	}
	return newTransferError(op, 0, "", err)
}
