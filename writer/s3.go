package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "ofiflow/config"
	"ofiflow/logger"
)

// Uploader copies the produced result files to S3 after a run. It is
// only constructed when storage.s3.enabled is set.
type Uploader struct {
	config   *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log
}

func NewUploader(cfg *appconfig.Config) (*Uploader, error) {
	log := logger.GetLogger()

	ctx := context.Background()

	// Configure AWS options
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	// Validate credentials
	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":     cfg.Storage.S3.Bucket,
		"region":     cfg.Storage.S3.Region,
		"endpoint":   cfg.Storage.S3.Endpoint,
		"path_style": cfg.Storage.S3.PathStyle,
	}).Info("s3 uploader initialized")

	return &Uploader{
		config:   cfg,
		s3Client: s3Client,
		log:      log,
	}, nil
}

// Upload puts each artifact under <prefix>/<date>/<filename>.
func (u *Uploader) Upload(ctx context.Context, paths []string) error {
	log := u.log.WithComponent("s3_uploader")
	datePrefix := time.Now().UTC().Format("2006/01/02")

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open artifact %s: %w", path, err)
		}

		key := filepath.ToSlash(filepath.Join(u.config.Storage.S3.Prefix, datePrefix, filepath.Base(path)))
		_, err = u.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(u.config.Storage.S3.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}

		log.WithFields(logger.Fields{
			"path":   path,
			"bucket": u.config.Storage.S3.Bucket,
			"key":    key,
		}).Info("artifact uploaded")
	}

	return nil
}
