package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
)

// S3Provider implements the StorageProvider interface for AWS S3
type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   *models.AWSConfig
	logger   *logrus.Logger
}

// NewS3Provider creates a new S3 provider instance
func NewS3Provider(cfg *models.AWSConfig, logger *logrus.Logger) (*S3Provider, error) {
	if logger == nil {
		logger = logrus.New()
	}

	awsConfig, err := createAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client),
		config:   cfg,
		logger:   logger,
	}, nil
}

// createAWSConfig creates AWS configuration based on provided settings
func createAWSConfig(cfg *models.AWSConfig) (aws.Config, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override with custom credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)
	}

	return awsConfig, nil
}

// GetProviderName returns the provider name
func (p *S3Provider) GetProviderName() models.CloudProvider {
	return models.ProviderAWS
}

// Upload uploads content to S3
func (p *S3Provider) Upload(ctx context.Context, bucket, path string, content io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
		Body:   content,
	}

	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := p.uploader.Upload(ctx, input)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": bucket,
			"path":   path,
		}).Error("Failed to upload to S3")
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"bucket": bucket,
		"path":   path,
	}).Info("Successfully uploaded to S3")

	return nil
}

// Delete deletes an object from S3
func (p *S3Provider) Delete(ctx context.Context, bucket, path string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}

	_, err := p.client.DeleteObject(ctx, input)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": bucket,
			"path":   path,
		}).Error("Failed to delete from S3")
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// PublicURL returns the public URL for a stored object
func (p *S3Provider) PublicURL(bucket, path string) string {
	if p.config.PublicURLBase != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(p.config.PublicURLBase, "/"), path)
	}
	if p.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.config.Endpoint, "/"), bucket, path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, p.config.Region, path)
}

// TestConnection tests the connection to S3
func (p *S3Provider) TestConnection(ctx context.Context) error {
	_, err := p.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return fmt.Errorf("S3 connection test failed: %w", err)
	}

	return nil
}
