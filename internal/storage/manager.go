package storage

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BackendType selects the storage backend.
type BackendType string

const (
	// BackendLocal stores files on the local filesystem.
	BackendLocal BackendType = "local"
	// BackendS3 stores files in an S3 bucket.
	BackendS3 BackendType = "s3"
)

// Config selects and configures the backend.
type Config struct {
	Backend BackendType

	// Local applies when Backend is local.
	Local *LocalConfig

	// S3 applies when Backend is s3.
	S3 *S3Config
}

// LocalConfig holds local filesystem settings.
type LocalConfig struct {
	// BaseDir is the root directory for all stored files.
	BaseDir string
}

// S3Config holds S3 settings.
type S3Config struct {
	Bucket string
	Prefix string
	// Client is the SDK client to use. Required for the s3 backend.
	Client *s3.Client
}

// Manager owns the configured backend and hands out namespace-scoped
// providers, so the memory store and the report archive stay isolated
// while sharing one backend.
type Manager struct {
	config   Config
	provider FileProvider
}

// NewManager builds the backend from config.
func NewManager(config Config) (*Manager, error) {
	var provider FileProvider

	switch config.Backend {
	case BackendLocal:
		if config.Local == nil || config.Local.BaseDir == "" {
			return nil, fmt.Errorf("local backend requires a base directory")
		}
		provider = NewLocalFileProvider(config.Local.BaseDir)

	case BackendS3:
		if config.S3 == nil || config.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 backend requires a bucket")
		}
		if config.S3.Client == nil {
			return nil, fmt.Errorf("s3 backend requires a client")
		}
		provider = NewS3FileProvider(config.S3.Bucket, config.S3.Prefix, NewAWSS3Client(config.S3.Client))

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", config.Backend)
	}

	return &Manager{config: config, provider: provider}, nil
}

// NewManagerWithProvider wraps an existing provider. Used by tests and
// custom deployments.
func NewManagerWithProvider(provider FileProvider) *Manager {
	return &Manager{provider: provider}
}

// Namespace returns a provider scoped to the given namespace, such as
// "memory" or "reports". An empty namespace returns the root provider.
func (m *Manager) Namespace(namespace string) FileProvider {
	if namespace == "" {
		return m.provider
	}
	return NewPrefixedFileProvider(m.provider, namespace)
}

// Backend reports which backend the manager was built with.
func (m *Manager) Backend() BackendType {
	return m.config.Backend
}
