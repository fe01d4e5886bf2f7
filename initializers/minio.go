package initializers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"
)

type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	MaxSize    int64
	ImageTypes []string
	Expiry     time.Duration
}

var MinioClient *minio.Client
var Conf MinioConfig

// thumbnailsConfigYAML defines optional YAML configuration for thumbnail
// uploads. If present, it overrides environment variables.
type thumbnailsConfigYAML struct {
	MaxImageSize       int64    `yaml:"max_image_size"`
	AllowedImageTypes  []string `yaml:"allowed_image_types"`
	PresignedURLExpiry int      `yaml:"presigned_url_expiry"` // seconds
}

func loadThumbnailsConfig() (*thumbnailsConfigYAML, error) {
	path := os.Getenv("THUMBNAILS_CONFIG_FILE")
	if strings.TrimSpace(path) == "" {
		path = "config/thumbnails.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg thumbnailsConfigYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InitMinio prepares the thumbnail object store and its bucket.
func InitMinio() error {
	Conf = MinioConfig{
		Endpoint:   os.Getenv("MINIO_ENDPOINT"),
		AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		Bucket:     os.Getenv("MINIO_BUCKET"),
		UseSSL:     strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),
		MaxSize:    parseInt64(os.Getenv("MAX_IMAGE_SIZE"), 2097152),
		ImageTypes: parseImageTypes(os.Getenv("ALLOWED_IMAGE_TYPES")),
		Expiry:     parseExpiry(os.Getenv("PRESIGNED_URL_EXPIRY")),
	}

	if yamlCfg, err := loadThumbnailsConfig(); err == nil && yamlCfg != nil {
		if yamlCfg.MaxImageSize > 0 {
			Conf.MaxSize = yamlCfg.MaxImageSize
		}
		if len(yamlCfg.AllowedImageTypes) > 0 {
			Conf.ImageTypes = yamlCfg.AllowedImageTypes
		}
		if yamlCfg.PresignedURLExpiry > 0 {
			Conf.Expiry = time.Duration(yamlCfg.PresignedURLExpiry) * time.Second
		}
	}

	client, err := minio.New(Conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(Conf.AccessKey, Conf.SecretKey, ""),
		Secure: Conf.UseSSL,
	})
	if err != nil {
		return err
	}
	MinioClient = client

	exists, err := client.BucketExists(context.Background(), Conf.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), Conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}

	log.Println("Minio bucket ready:", Conf.Bucket)
	return nil
}

func parseInt64(val string, def int64) int64 {
	if val == "" {
		return def
	}
	v, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func parseImageTypes(val string) []string {
	if val == "" {
		return []string{"image/jpeg", "image/png", "image/webp"}
	}
	return strings.Split(val, ",")
}

func parseExpiry(val string) time.Duration {
	if val == "" {
		return time.Hour
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return time.Hour
	}
	return time.Duration(v) * time.Second
}

// CheckImageAllowed validates an upload against the configured size limit
// and allowed image MIME types.
func CheckImageAllowed(size int64, mime string) error {
	if size > Conf.MaxSize {
		return fmt.Errorf("image size exceeds the limit")
	}
	base := strings.TrimSpace(strings.Split(mime, ";")[0])
	for _, t := range Conf.ImageTypes {
		if strings.TrimSpace(strings.Split(t, ";")[0]) == base {
			return nil
		}
	}
	return fmt.Errorf("image type is not allowed")
}

// GenerateThumbnailURL returns a presigned GET URL for a stored thumbnail.
func GenerateThumbnailURL(objectName, downloadName string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", downloadName))
	presigned, err := MinioClient.PresignedGetObject(
		context.Background(), Conf.Bucket, objectName, Conf.Expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to create presigned url: %v", err)
	}
	return presigned.String(), nil
}
