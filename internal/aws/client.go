package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type Error string

const (
	ErrNoCredentials      = Error("no AWS credentials found")
	ErrExpiredCredentials = Error("AWS credentials have expired")
	ErrNoBucket           = Error("no archive bucket configured")
	ErrNoSuchKey          = Error("archive object not found")
)

func (e Error) Error() string {
	return string(e)
}

// DefaultRegion is used when neither the config nor the profile names one.
const DefaultRegion = "us-east-1"

// ObjectAPI is the subset of the S3 API the archive uses.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ArchiveConfig locates archived traces.
type ArchiveConfig struct {
	Bucket  string
	Prefix  string
	Region  string
	Profile string
	Timeout time.Duration
}

// Archive reads archived traces from S3. The S3 client is created lazily on
// first use from the shared AWS config of the configured profile.
type Archive struct {
	config ArchiveConfig
	api    ObjectAPI
	mx     sync.Mutex
}

// NewArchive creates an archive reader.
func NewArchive(cfg ArchiveConfig) *Archive {
	return &Archive{config: cfg}
}

// NewArchiveWithAPI creates an archive reader over an existing S3 client.
func NewArchiveWithAPI(cfg ArchiveConfig, api ObjectAPI) *Archive {
	return &Archive{config: cfg, api: api}
}

// Bucket returns the archive location as bucket/prefix.
func (a *Archive) Bucket() string {
	if a.config.Prefix == "" {
		return a.config.Bucket
	}
	return a.config.Bucket + "/" + a.config.Prefix
}

func (a *Archive) client(ctx context.Context) (ObjectAPI, error) {
	a.mx.Lock()
	defer a.mx.Unlock()

	if a.api != nil {
		return a.api, nil
	}
	if a.config.Bucket == "" {
		return nil, ErrNoBucket
	}
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(orDefault(a.config.Region, DefaultRegion)),
	}
	if a.config.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(a.config.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapAWSError(err, "load AWS config")
	}
	a.api = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 3
	})

	return a.api, nil
}

// WrapAWSError wraps AWS SDK errors with additional context.
func WrapAWSError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException":
			return fmt.Errorf("access denied for %s: %w", operation, err)
		case "ExpiredToken", "ExpiredTokenException":
			return fmt.Errorf("%w: %s", ErrExpiredCredentials, operation)
		case "NoSuchKey":
			return fmt.Errorf("%w: %s", ErrNoSuchKey, operation)
		case "SlowDown", "ThrottlingException":
			return fmt.Errorf("rate limited during %s: %w", operation, err)
		case "InvalidAccessKeyId", "InvalidClientTokenId":
			return fmt.Errorf("%w: %s", ErrNoCredentials, operation)
		default:
			return fmt.Errorf("%s failed: %s (%s)", operation, apiErr.ErrorMessage(), apiErr.ErrorCode())
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
