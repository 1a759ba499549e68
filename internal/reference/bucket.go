package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/koustreak/schemadrift/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketConfig holds the settings for reading reference files from
// MinIO or any S3-compatible store.
type BucketConfig struct {
	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	Bucket string
	// Prefix is prepended to "<table>.sql" to form the object key.
	Prefix string
}

// Bucket reads reference files from an object store bucket.
// It is safe for concurrent use by multiple goroutines.
type Bucket struct {
	client *miniogo.Client
	bucket string
	prefix string
}

// NewBucket connects to the object store and checks that the bucket exists.
func NewBucket(ctx context.Context, cfg *BucketConfig) (*Bucket, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapBucketError(err, "failed to reach bucket "+cfg.Bucket)
	}
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("bucket %q does not exist", cfg.Bucket))
	}

	return &Bucket{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key that holds the reference for table.
func (b *Bucket) Key(table string) string {
	return objectKey(b.prefix, table)
}

// Location returns a printable address of the reference for table.
func (b *Bucket) Location(table string) string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.Key(table))
}

// Load downloads the whole object for table.
func (b *Bucket) Load(ctx context.Context, table string) (*Document, error) {
	if err := checkName(table); err != nil {
		return nil, err
	}

	location := b.Location(table)
	obj, err := b.client.GetObject(ctx, b.bucket, b.Key(table), miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(err, location)
	}
	defer obj.Close()

	text, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectError(err, location)
	}

	return &Document{Table: table, Location: location, Text: string(text)}, nil
}

func objectKey(prefix, table string) string {
	if prefix == "" {
		return table + Extension
	}
	return path.Join(prefix, table+Extension)
}

// mapObjectError reports a missing object with the same message a missing
// local file gets.
func mapObjectError(err error, location string) error {
	mapped := mapBucketError(err, "failed to read "+location)
	if mapped.Kind == errs.ErrKindNotFound {
		return notFound(location, err)
	}
	return mapped
}

// mapBucketError translates a MinIO SDK error into a *errs.Error.
func mapBucketError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// MinIO SDK exposes a typed ErrorResponse for S3-protocol errors
	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case "RequestTimeout", "SlowDown":
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
