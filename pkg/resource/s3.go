package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
)

// S3Finder reads resource streams from an S3 bucket, for deployments
// that keep templates and bundles outside the binary.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	finder := resource.NewS3Finder(s3.NewFromConfig(cfg), "my-bucket", "templates/")
type S3Finder struct {
	client     *s3.Client
	bucket     string
	prefix     string
	maxRetries uint64
}

// NewS3Finder returns a finder over bucket, prepending prefix to every
// resource name.
func NewS3Finder(client *s3.Client, bucket, prefix string) *S3Finder {
	return &S3Finder{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		maxRetries: 3,
	}
}

// WithMaxRetries sets how many times transient fetch failures are
// retried with exponential backoff.
func (f *S3Finder) WithMaxRetries(n uint64) *S3Finder {
	f.maxRetries = n
	return f
}

// Find implements Finder. Missing keys map to ErrNotFound without
// retrying; transient failures are retried.
func (f *S3Finder) Find(ctx context.Context, name string) (Stream, error) {
	key := f.prefix + name

	var data []byte
	var mod time.Time

	op := func() error {
		out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			if errors.As(err, &noKey) {
				return backoff.Permanent(fmt.Errorf("%q: %w", name, ErrNotFound))
			}
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		if err != nil {
			return err
		}
		if out.LastModified != nil {
			mod = *out.LastModified
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resource: s3 fetch %q: %w", key, err)
	}

	return &memStream{name: "s3:" + f.bucket + "/" + key, data: data, mod: mod}, nil
}
