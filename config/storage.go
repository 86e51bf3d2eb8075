package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 client and bucket info
type S3Config struct {
	Client     *s3.Client
	BucketName string
	Region     string
	// PublicBaseURL overrides the default virtual-hosted bucket URL, e.g. a CDN
	PublicBaseURL string
}

// NewS3Config initializes the S3 client from the loaded configuration
func NewS3Config(ctx context.Context, cfg *Config) (*S3Config, error) {
	// Credentials come from the environment or shared config
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:        s3.NewFromConfig(awsCfg),
		BucketName:    cfg.S3BucketName,
		Region:        cfg.S3Region,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}, nil
}

// ObjectURL returns the public URL of an object in the bucket
func (s *S3Config) ObjectURL(key string) string {
	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + "/" + key
	}
	return "https://" + s.BucketName + ".s3.amazonaws.com/" + key
}
