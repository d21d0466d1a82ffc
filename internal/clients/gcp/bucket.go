package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/snapcal-backend/internal/platform/ctxutil"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// BucketService stores submitted flyer images so the provenance record can
// point at the original instead of a truncated data URI.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	ArchiveImage(ctx context.Context, key string, img []byte) (string, error)
	GetPublicURL(key string) string
	Close() error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucket        string
	cdnDomain     string
}

func NewBucketService(log *logger.Logger, bucket, cdnDomain string, opts ...option.ClientOption) (BucketService, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket name required")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &bucketService{
		log:           log.With("service", "BucketService"),
		storageClient: stClient,
		bucket:        bucket,
		cdnDomain:     cdnDomain,
	}, nil
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// ArchiveImage uploads img under key and returns its gs:// URI.
func (bs *bucketService) ArchiveImage(ctx context.Context, key string, img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("empty image")
	}
	if err := bs.UploadFile(ctx, key, bytes.NewReader(img)); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", bs.bucket, key), nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".heic"):
		return "image/heic"
	default:
		return ""
	}
}

// ExtForMime maps an image mime type to the key suffix used by ArchiveImage callers.
func ExtForMime(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}
