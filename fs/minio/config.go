// Package minio provides a MinIO/S3-compatible implementation of the core.FS interface.
package minio

import (
	"github.com/jmgilman/go/textio/errors"
	"github.com/kelseyhightower/envconfig"
	"github.com/minio/minio-go/v7"
)

// defaultMultipartThreshold is the buffered size after which writes switch
// to a streaming upload.
const defaultMultipartThreshold = 5 * 1024 * 1024

// Config holds MinIO filesystem configuration.
type Config struct {
	// Endpoint is the MinIO server URL (e.g., "localhost:9000")
	Endpoint string `envconfig:"ENDPOINT"`

	// Bucket is the S3 bucket name
	Bucket string `envconfig:"BUCKET"`

	// AccessKey is the access key ID for authentication
	AccessKey string `envconfig:"ACCESS_KEY"`

	// SecretKey is the secret access key for authentication
	SecretKey string `envconfig:"SECRET_KEY"`

	// UseSSL enables HTTPS connections
	UseSSL bool `envconfig:"USE_SSL" default:"true"`

	// Prefix is an optional prefix for all object keys (for namespacing)
	Prefix string `envconfig:"PREFIX"`

	// Client is an optional pre-configured MinIO client
	// If provided, Endpoint/AccessKey/SecretKey are ignored
	Client *minio.Client `ignored:"true"`

	// MultipartThreshold is the buffered size after which a written file
	// is streamed to the server instead of held in memory.
	// Set to 0 to use the 5MB default.
	MultipartThreshold int64 `envconfig:"MULTIPART_THRESHOLD"`
}

// LoadConfig reads Config from environment variables named
// <prefix>_ENDPOINT, <prefix>_BUCKET and so on.
func LoadConfig(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to load minio configuration")
	}
	return cfg, nil
}

// validate checks if the configuration is valid.
// Either Client OR (Endpoint + Bucket + AccessKey + SecretKey) must be provided.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New(errors.CodeInvalidConfig, "bucket is required")
	}

	if c.Client != nil {
		return nil
	}

	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "secret key is required when client is not provided")
	}

	return nil
}
