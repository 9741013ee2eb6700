package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the part of the S3 client used here; tests supply a fake.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configure NewS3Source.
type S3Options struct {
	Bucket string
	Key    string
	Region string
	// Profile selects a shared-config profile. Ignored when static keys are set.
	Profile string
	// AccessKeyID and SecretAccessKey pin static credentials instead of the default chain.
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack). Enables path-style addressing.
	Endpoint string
}

// S3Source reads the export from one S3 object.
type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source loads the AWS configuration and builds an S3-backed source.
func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	if opts.Bucket == "" || opts.Key == "" {
		return nil, fmt.Errorf("s3 source needs a bucket and key")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	switch {
	case opts.AccessKeyID != "" && opts.SecretAccessKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	case opts.Profile != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	log.Printf("[source] S3 source s3://%s/%s (region %s)", opts.Bucket, opts.Key, opts.Region)
	return NewS3SourceWithClient(client, opts.Bucket, opts.Key), nil
}

// NewS3SourceWithClient builds a source around an existing client.
func NewS3SourceWithClient(client ObjectGetter, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

// Fetch downloads the object. A missing bucket or key yields ErrNotFound.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.key }

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return true
	}
	// HeadObject-style errors only carry the code in the message.
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound")
}
