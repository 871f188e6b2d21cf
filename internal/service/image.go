package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
)

const (
	maxImageSide   = 1280
	imageKeyPrefix = "recipes/images/"
)

// ImageStore persists encoded images and returns their public URL
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3Store stores images in the configured bucket
type S3Store struct {
	s3Config *config.S3Config
}

// NewS3Store creates a new S3Store instance
func NewS3Store(s3Config *config.S3Config) *S3Store {
	return &S3Store{s3Config: s3Config}
}

// Save uploads data to S3 and returns the public URL
func (s *S3Store) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.s3Config.PublicURL(key), nil
}

// Delete removes an object from the bucket
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// LocalStore writes images below a media directory served at baseURL
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a new LocalStore instance
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes data below the media directory
func (s *LocalStore) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes a stored file; a missing file is not an error
func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// ImageService turns uploaded base64 images into stored files
type ImageService struct {
	store ImageStore
	log   *zap.Logger
}

// NewImageService creates a new ImageService instance
func NewImageService(store ImageStore, log *zap.Logger) *ImageService {
	return &ImageService{store: store, log: log}
}

// StoredImage is the result of saving an uploaded image
type StoredImage struct {
	Key string
	URL string
}

// SaveDataURI decodes a data:image/...;base64 URI, verifies that it holds a
// jpeg or png, downsizes it to fit the maximum side and stores it.
func (s *ImageService) SaveDataURI(ctx context.Context, uri string) (*StoredImage, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, NewValidationError("image", "Malformed image data.")
	}

	format := imaging.PNG
	ext, contentType := "png", "image/png"
	if strings.Contains(header, "jpeg") || strings.Contains(header, "jpg") {
		format = imaging.JPEG
		ext, contentType = "jpg", "image/jpeg"
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, NewValidationError("image", "Image data is not valid base64.")
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, NewValidationError("image", "Upload a valid image.")
	}
	img = fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	key := imageKeyPrefix + uuid.NewString() + "." + ext
	url, err := s.store.Save(ctx, key, buf.Bytes(), contentType)
	if err != nil {
		return nil, err
	}

	s.log.Debug("stored recipe image", zap.String("key", key), zap.Int("bytes", buf.Len()))
	return &StoredImage{Key: key, URL: url}, nil
}

// Discard removes an image stored by SaveDataURI. Failures are only logged.
func (s *ImageService) Discard(ctx context.Context, img *StoredImage) {
	if img == nil {
		return
	}
	if err := s.store.Delete(ctx, img.Key); err != nil {
		s.log.Warn("failed to discard image", zap.String("key", img.Key), zap.Error(err))
	}
}

func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxImageSide && b.Dy() <= maxImageSide {
		return img
	}
	return imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
}
