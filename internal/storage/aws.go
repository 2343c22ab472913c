package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/revenue-reporter/internal/pkg/logger"
)

// AWSStorage mirrors report artifacts to an S3 bucket so downstream
// consumers (dashboards, the BI warehouse loader) can pick them up.
type AWSStorage struct {
	s3Client *s3.Client
	bucket   string
	prefix   string
}

// NewAWSStorage creates an S3-backed artifact mirror. When profile is
// set, the shared config profile is used; otherwise the default
// credential chain applies.
func NewAWSStorage(ctx context.Context, bucket, prefix, region, profile string) (*AWSStorage, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &AWSStorage{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

// UploadFile puts a local artifact under the configured prefix, keyed by
// UTC date so consecutive runs don't clobber each other.
func (a *AWSStorage) UploadFile(localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(a.prefix, time.Now().UTC().Format("2006-01-02"), name)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", a.bucket, key, err)
	}

	logger.Info("uploaded artifact", "bucket", a.bucket, "key", key)
	return nil
}
