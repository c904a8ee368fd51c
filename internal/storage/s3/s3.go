package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/5w1tchy/reading-journal/internal/config"
	"github.com/5w1tchy/reading-journal/internal/journal"
)

// KeyPrefix is where memo images live in the bucket.
const KeyPrefix = "memo-images/"

// objectAPI is the slice of *s3.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Client struct {
	Client objectAPI
	Bucket string
	// BaseURL prefixes object keys to form public URLs.
	BaseURL string
}

var _ journal.FileUploader = (*S3Client)(nil)

// NewClient builds an S3-compatible client (R2, MinIO, AWS) from config.
func NewClient(ctx context.Context, cfg config.Storage) (*S3Client, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Client{Client: client, Bucket: cfg.Bucket, BaseURL: PublicBase(cfg)}, nil
}

// PublicBase is MEMO_IMAGE_PUBLIC_BASE_URL, or the bucket URL on the endpoint.
func PublicBase(cfg config.Storage) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
}

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectKey returns memo-images/<owner>/<uuid>.<ext>.
func ObjectKey(ownerID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = "bin"
	}
	return KeyPrefix + ownerID + "/" + uuid.NewString() + "." + ext
}

// Store uploads the image and returns its public URL.
func (s *S3Client) Store(ctx context.Context, ownerID string, payload io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(ownerID, contentType)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          payload,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3Client) URL(key string) string {
	return s.BaseURL + "/" + key
}

// KeyFromURL reverses URL. URLs that do not point at a memo image in this
// bucket are rejected so foreign links are never deleted.
func (s *S3Client) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || !strings.HasPrefix(key, KeyPrefix) || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

// OwnerOf returns the member whose upload url points at. Keys are
// memo-images/<owner>/<file>.
func (s *S3Client) OwnerOf(url string) (string, bool) {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return "", false
	}
	owner, file, ok := strings.Cut(strings.TrimPrefix(key, KeyPrefix), "/")
	if !ok || owner == "" || file == "" || strings.Contains(file, "/") {
		return "", false
	}
	return owner, true
}

// DeleteObject deletes an object from the bucket (used for cleanup).
func (s *S3Client) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object %s: %w", objectKey, err)
	}
	return nil
}
