package config

import (
	"strings"
	"sync"
)

// StorageConfig holds object storage settings.
type StorageConfig struct {
	Driver string `json:"driver"` // minio, s3 or memory
	Bucket string `json:"bucket"`
	Minio  MinioConfig
	S3     S3Config
}

// MinioConfig describes the MinIO endpoint.
type MinioConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseSSL   bool   `json:"use_ssl"`
}

// S3Config describes an S3 or S3-compatible endpoint.
type S3Config struct {
	Endpoint       string `json:"endpoint"`
	Region         string `json:"region"`
	AccessKey      string `json:"access_key"`
	SecretKey      string `json:"secret_key"`
	ForcePathStyle bool   `json:"force_path_style"`
}

var StorageConfigInstance *StorageConfig
var storageConfigOnce sync.Once

// InitStorageConfig initializes storage config.
func InitStorageConfig() {
	storageConfigOnce.Do(func() {
		StorageConfigInstance = &StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", "minio")),
			Bucket: AppConfig.BucketName,
			Minio: MinioConfig{
				Host:     getEnv("MINIO_HOST", "localhost"),
				Port:     getEnv("MINIO_PORT", "9000"),
				Username: getEnv("MINIO_USERNAME", "minioadmin"),
				Password: getEnv("MINIO_PASSWORD", "minioadmin"),
				UseSSL:   getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Endpoint:       getEnv("S3_ENDPOINT", ""),
				Region:         getEnv("S3_REGION", "us-east-1"),
				AccessKey:      getEnv("S3_ACCESS_KEY", ""),
				SecretKey:      getEnv("S3_SECRET_KEY", ""),
				ForcePathStyle: getEnvBool("S3_FORCE_PATH_STYLE", true),
			},
		}
	})
}
