// Package storage uploads profile photos to an S3-compatible bucket
// (Cloudflare R2 in production) and hands out presigned upload URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrDisabled        = errors.New("object storage is not configured")
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("only images can be uploaded")
)

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/avif": "avif",
	"image/heic": "heic",
}

var safeExt = regexp.MustCompile(`^[a-z0-9]{1,5}$`)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigned is what a client needs to upload directly to the bucket.
type Presigned struct {
	UploadURL string    `json:"presigned_url"`
	PublicURL string    `json:"public_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store struct {
	objects    objectAPI
	presigner  presignAPI
	bucket     string
	publicURL  string
	maxBytes   int64
	presignTTL time.Duration
}

// New builds a Store from cfg. It returns ErrDisabled when the bucket settings are incomplete.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return newStore(client, s3.NewPresignClient(client), cfg), nil
}

func newStore(objects objectAPI, presigner presignAPI, cfg config.StorageConfig) *Store {
	return &Store{
		objects:    objects,
		presigner:  presigner,
		bucket:     cfg.Bucket,
		publicURL:  strings.TrimSuffix(cfg.PublicURL, "/"),
		maxBytes:   cfg.MaxUploadBytes,
		presignTTL: cfg.PresignTTL,
	}
}

// UploadProfileAsset stores data under profiles/<owner>/<uuid>.<ext> and returns its public URL.
// An empty mimeType is sniffed from the content.
func (s *Store) UploadProfileAsset(ctx context.Context, ownerID string, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), s.maxBytes)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	ext, err := extensionFor(mimeType)
	if err != nil {
		return "", err
	}

	key := objectKey(ownerID, ext)
	_, err = s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(normalizeMIME(mimeType)),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// PresignUpload returns a short-lived PUT URL for a browser upload. The extension
// comes from fileName when it looks sane, otherwise from mimeType.
func (s *Store) PresignUpload(ctx context.Context, ownerID, fileName, mimeType string) (*Presigned, error) {
	fromMIME, err := extensionFor(mimeType)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if !safeExt.MatchString(ext) {
		ext = fromMIME
	}

	key := objectKey(ownerID, ext)
	ttl := s.presignTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(normalizeMIME(mimeType)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return &Presigned{
		UploadURL: req.URL,
		PublicURL: s.publicURL + "/" + key,
		ObjectKey: key,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

func objectKey(ownerID, ext string) string {
	return fmt.Sprintf("profiles/%s/%s.%s", ownerID, uuid.NewString(), ext)
}

func normalizeMIME(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}

func extensionFor(mimeType string) (string, error) {
	ext, ok := imageExt[normalizeMIME(mimeType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
	return ext, nil
}
