// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// file-upload answers. Browsers upload directly with a presigned PUT URL;
// the server only issues URLs and records the object key in the response.
// It wraps the AWS SDK v2 and is configured for path-style access (required
// by CEPH/Hetzner).
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"collabforms/internal/slug"
)

const (
	// UploadURLTTL is how long a presigned upload URL stays valid.
	UploadURLTTL = 15 * time.Minute

	// DownloadURLTTL is how long a presigned download URL stays valid.
	DownloadURLTTL = time.Hour

	// MaxUploadSize caps the declared size of a single upload (25 MB).
	MaxUploadSize = 25 << 20

	// keyPrefix namespaces upload objects in the bucket.
	keyPrefix = "uploads/"
)

// Client wraps an S3 client for upload operations on a single private bucket.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// Upload describes a presigned upload handed to the browser.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates an S3 storage client configured for CEPH/Hetzner with
// path-style addressing. Returns (nil, nil) if endpoint or credentials
// are empty, allowing the app to start without uploads.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")

	// Build S3 client with static credentials and path-style access.
	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
	}, nil
}

// ObjectKey builds the storage key for a file uploaded to a section. The
// random component keeps repeated uploads of the same name apart.
func ObjectKey(sectionID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s%s/%s-%s", keyPrefix, sectionID, uuid.NewString()[:8], slug.FileName(fileName))
}

// BelongsTo reports whether key was issued for the given section.
func BelongsTo(key string, sectionID uuid.UUID) bool {
	return strings.HasPrefix(key, keyPrefix+sectionID.String()+"/")
}

// PresignUpload generates a presigned PUT URL for a new object.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string, size int64) (*Upload, error) {
	if size < 0 || size > MaxUploadSize {
		return nil, fmt.Errorf("s3 presign upload %s: size %d outside 0..%d", key, size, MaxUploadSize)
	}

	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(UploadURLTTL))
	if err != nil {
		return nil, fmt.Errorf("s3 presign upload %s/%s: %w", c.bucket, key, err)
	}

	return &Upload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(UploadURLTTL),
	}, nil
}

// PresignedURL generates a pre-signed GET URL for an uploaded object.
func (c *Client) PresignedURL(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(DownloadURLTTL))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}
