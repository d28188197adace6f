package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/cache"
	memoryrepo "github.com/tendant/simple-upload/pkg/simpleupload/repo/memory"
	postgresrepo "github.com/tendant/simple-upload/pkg/simpleupload/repo/postgres"
	fsstorage "github.com/tendant/simple-upload/pkg/simpleupload/storage/fs"
	memorystorage "github.com/tendant/simple-upload/pkg/simpleupload/storage/memory"
	s3storage "github.com/tendant/simple-upload/pkg/simpleupload/storage/s3"
)

// ServerConfig holds everything needed to assemble the upload service
type ServerConfig struct {
	Port        string
	Environment string

	DatabaseType  string // "memory" or "postgres"
	DatabaseURL   string
	RunMigrations bool

	StorageType string // "memory", "fs" or "s3"
	FSBaseDir   string

	S3Region               string
	S3Bucket               string
	S3AccessKeyID          string
	S3SecretAccessKey      string
	S3Endpoint             string
	S3UsePathStyle         bool
	S3CreateBucketIfAbsent bool

	CacheSize int
	CacheTTL  time.Duration
}

// Option represents a functional option for building a ServerConfig
type Option func(*ServerConfig) error

// New builds a ServerConfig from defaults plus options
func New(options ...Option) (*ServerConfig, error) {
	c := &ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		StorageType:  "memory",
		CacheSize:    cache.DefaultSize,
		CacheTTL:     cache.DefaultTTL,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the metadata repository backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithMigrations enables running schema migrations at startup
func WithMigrations() Option {
	return func(c *ServerConfig) error {
		c.RunMigrations = true
		return nil
	}
}

// WithFilesystemStorage selects the filesystem blob store
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StorageType = "fs"
		c.FSBaseDir = baseDir
		return nil
	}
}

// WithMemoryStorage selects the in-memory blob store
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.StorageType = "memory"
		return nil
	}
}

// WithS3Storage selects an S3-compatible blob store
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}
		c.StorageType = "s3"
		c.S3Bucket = bucket
		c.S3Region = region
		return nil
	}
}

// WithS3Credentials sets static credentials and endpoint for S3-compatible
// services (MinIO)
func WithS3Credentials(accessKeyID, secretAccessKey, endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		c.S3AccessKeyID = accessKeyID
		c.S3SecretAccessKey = secretAccessKey
		c.S3Endpoint = endpoint
		c.S3UsePathStyle = usePathStyle
		return nil
	}
}

// WithS3CreateBucketIfAbsent creates the bucket at startup when it does not
// exist yet (MinIO and localstack development setups)
func WithS3CreateBucketIfAbsent() Option {
	return func(c *ServerConfig) error {
		c.S3CreateBucketIfAbsent = true
		return nil
	}
}

// WithResultCache sizes the list-query result cache
func WithResultCache(size int, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if size <= 0 {
			return fmt.Errorf("cache size must be positive, got: %d", size)
		}
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive, got: %s", ttl)
		}
		c.CacheSize = size
		c.CacheTTL = ttl
		return nil
	}
}

// Validate checks the configuration for consistency
func (c *ServerConfig) Validate() error {
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("database URL is required for postgres")
	}
	if c.StorageType == "fs" && c.FSBaseDir == "" {
		return fmt.Errorf("filesystem base directory is required for fs storage")
	}
	if c.StorageType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3 bucket is required for s3 storage")
	}
	switch c.StorageType {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("storage type must be 'memory', 'fs' or 's3', got: %s", c.StorageType)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// BuildService assembles the repository, blob store and service described by
// the configuration.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simpleupload.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, err
	}

	store, err := c.buildBlobStore()
	if err != nil {
		return nil, err
	}

	return simpleupload.New(
		simpleupload.WithRepository(repo),
		simpleupload.WithBlobStore(store),
		simpleupload.WithLogger(logger),
	)
}

// BuildResultCache assembles the list-query result cache
func (c *ServerConfig) BuildResultCache() *cache.ResultCache {
	return cache.New(c.CacheSize, c.CacheTTL)
}

func (c *ServerConfig) buildRepository(ctx context.Context) (simpleupload.Repository, error) {
	switch c.DatabaseType {
	case "postgres":
		if c.RunMigrations {
			if err := postgresrepo.Migrate(c.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return postgresrepo.NewWithPool(pool), nil
	default:
		return memoryrepo.New(), nil
	}
}

func (c *ServerConfig) buildBlobStore() (simpleupload.BlobStore, error) {
	switch c.StorageType {
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: c.FSBaseDir})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			CreateBucketIfNotExist: c.S3CreateBucketIfAbsent,
		})
	default:
		return memorystorage.New(), nil
	}
}
