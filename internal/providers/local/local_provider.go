package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
)

// LocalProvider implements the StorageProvider interface for the local
// filesystem. Bucket names map to directories under the base path.
type LocalProvider struct {
	config *models.LocalConfig
	logger *logrus.Logger
}

// NewLocalProvider creates a new local filesystem provider
func NewLocalProvider(cfg *models.LocalConfig, logger *logrus.Logger) (*LocalProvider, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if cfg.BasePath == "" {
		return nil, fmt.Errorf("local storage base path is required")
	}

	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage base path: %w", err)
	}

	return &LocalProvider{config: cfg, logger: logger}, nil
}

// GetProviderName returns the provider name
func (p *LocalProvider) GetProviderName() models.CloudProvider {
	return models.ProviderLocal
}

func (p *LocalProvider) fullPath(bucket, path string) string {
	return filepath.Join(p.config.BasePath, bucket, filepath.FromSlash(path))
}

// Upload writes content to the local filesystem
func (p *LocalProvider) Upload(ctx context.Context, bucket, path string, content io.Reader, contentType string) error {
	target := p.fullPath(bucket, path)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"bucket": bucket,
		"path":   path,
	}).Info("Successfully stored file locally")

	return nil
}

// Delete removes a file from the local filesystem
func (p *LocalProvider) Delete(ctx context.Context, bucket, path string) error {
	if err := os.Remove(p.fullPath(bucket, path)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PublicURL returns the URL the file is served from
func (p *LocalProvider) PublicURL(bucket, path string) string {
	base := strings.TrimRight(p.config.BaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, bucket, path)
}

// TestConnection verifies the base path is writable
func (p *LocalProvider) TestConnection(ctx context.Context) error {
	probe := filepath.Join(p.config.BasePath, ".write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("local storage is not writable: %w", err)
	}
	return os.Remove(probe)
}
