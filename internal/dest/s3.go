package dest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ferryd/ferry/internal/config"
)

// s3API is the slice of the S3 client the writer uses. It exists so tests
// can substitute a mock.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer uploads files to a bucket under a key prefix. Credentials resolve
// through the SDK's default chain (environment, shared config, instance
// role); the writer never handles them directly.
type S3Writer struct {
	api       s3API
	bucket    string
	prefix    string
	overwrite bool
	logger    *slog.Logger
}

// NewS3Writer loads AWS configuration, builds the client, and probes the
// bucket with a HEAD request so a missing or inaccessible bucket fails the
// run before any entry is processed.
func NewS3Writer(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*S3Writer, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	w := &S3Writer{
		api:       s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		overwrite: cfg.Overwrite,
		logger:    logger,
	}

	if _, err := w.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.Bucket, err)
	}

	logger.Info("connected to s3 bucket", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	return w, nil
}

// newS3WriterWithAPI wires a writer to a pre-built API, for tests.
func newS3WriterWithAPI(api s3API, cfg config.S3Config, logger *slog.Logger) *S3Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Writer{
		api:       api,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		overwrite: cfg.Overwrite,
		logger:    logger,
	}
}

// key builds the object key by plain concatenation; prefix formatting
// (trailing separator) is the caller's responsibility.
func (w *S3Writer) key(name string) string {
	return w.prefix + name
}

// ShouldSkip probes the object with a HEAD request. An existing object is
// skipped unless overwrite is enabled. A "not found" reply is a normal
// proceed; any other probe failure propagates and aborts the run, since it
// means the destination session is broken for every subsequent entry.
func (w *S3Writer) ShouldSkip(ctx context.Context, name string) (bool, error) {
	if w.overwrite {
		return false, nil
	}

	key := w.key(name)
	_, err := w.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("probing s3://%s/%s: %w", w.bucket, key, err)
	}
	return true, nil
}

// Store uploads the temp file with a single PutObject. S3 puts are atomic:
// a failed upload leaves no partial object behind for later probes to see.
func (w *S3Writer) Store(ctx context.Context, tempPath, name string) error {
	f, err := os.Open(tempPath)
	if err != nil {
		return fmt.Errorf("opening temp file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat temp file: %w", err)
	}

	key := w.key(name)
	_, err = w.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(w.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(fi.Size()),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", w.bucket, key, err)
	}

	w.logger.Debug("uploaded to s3", "file", name, "key", key, "bytes", fi.Size())
	return nil
}

// isNotFound reports whether an S3 error is a missing-object reply rather
// than a real failure.
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey")
}
