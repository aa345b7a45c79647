package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// ErrBucketRequired is returned by NewS3 without a bucket name.
var ErrBucketRequired = errors.New("s3 bucket is required")

// S3API is the part of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config selects the bucket. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3 stores images in a bucket.
type S3 struct {
	client S3API
	bucket string
}

// NewS3 loads the AWS configuration and creates the client.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewS3WithClient(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

// NewS3WithClient uses an existing client.
func NewS3WithClient(client S3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func (s *S3) Put(ctx context.Context, contentType string, body io.Reader) (string, error) {
	key, err := newKey(contentType)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(normalizeContentType(contentType)),
	})
	if err != nil {
		return "", errors.Join(core.ErrStorage, err)
	}

	return key, nil
}

func (s *S3) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if err := validateKey(ref); err != nil {
		return nil, "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, "", fmt.Errorf("%w: image %q", core.ErrNotFound, ref)
	}

	if err != nil {
		return nil, "", errors.Join(core.ErrStorage, err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = contentTypeOf(ref)
	}

	return out.Body, contentType, nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	if err := validateKey(ref); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return errors.Join(core.ErrStorage, err)
	}

	return nil
}
