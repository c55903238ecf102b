package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"salesintel/models"
)

const s3Scheme = "s3://"

// Opener resolves a source string to a readable stream.
type Opener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// ObjectGetter is the subset of the S3 client used for reading objects.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the S3 client built by NewS3Client.
type S3Options struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client from the default AWS credential chain,
// or from static keys when both are provided.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	}), nil
}

// SourceOpener opens local files and, when an S3 client is set, s3:// URIs.
type SourceOpener struct {
	S3 ObjectGetter
}

// Open implements Opener. Every failure wraps models.ErrSourceUnavailable.
func (o SourceOpener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, s3Scheme) {
		return o.openS3(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	return f, nil
}

func (o SourceOpener) openS3(ctx context.Context, source string) (io.ReadCloser, error) {
	bucket, key, ok := SplitS3URI(source)
	if !ok {
		return nil, fmt.Errorf("%w: malformed s3 uri %q", models.ErrSourceUnavailable, source)
	}
	if o.S3 == nil {
		return nil, fmt.Errorf("%w: no s3 client configured for %q", models.ErrSourceUnavailable, source)
	}

	out, err := o.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get s3 object: %v", models.ErrSourceUnavailable, err)
	}
	return out.Body, nil
}

// SplitS3URI breaks s3://bucket/key into its parts.
func SplitS3URI(uri string) (bucket, key string, ok bool) {
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
