package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewDisabledWithoutCredentials(t *testing.T) {
	c, err := New("", "fsn1", "", "", "bucket")
	if err != nil || c != nil {
		t.Fatalf("New without endpoint = %v, %v; want nil, nil", c, err)
	}
	if _, err := New("https://s3.example.com", "fsn1", "key", "secret", ""); err == nil {
		t.Error("expected an error for an empty bucket")
	}
}

func TestObjectKey(t *testing.T) {
	section := uuid.MustParse("6f1c2a4e-8d1b-4c2e-9a51-1f2d3c4b5a69")
	key := ObjectKey(section, "../Signed Contract.PDF")

	if !strings.HasPrefix(key, "uploads/"+section.String()+"/") {
		t.Errorf("key %q not under the section prefix", key)
	}
	if !strings.HasSuffix(key, "-signed-contract.pdf") {
		t.Errorf("key %q does not end with the slugged file name", key)
	}
	if !BelongsTo(key, section) {
		t.Error("BelongsTo should accept its own key")
	}
	if BelongsTo(key, uuid.New()) {
		t.Error("BelongsTo should reject a key from another section")
	}
	if ObjectKey(section, "a.txt") == ObjectKey(section, "a.txt") {
		t.Error("repeated uploads should get distinct keys")
	}
}

// Presigning is a local computation, so no S3 endpoint needs to be running.
func TestPresignUpload(t *testing.T) {
	c, err := New("https://s3.example.com/", "fsn1", "AKIATEST", "secrettest", "forms")
	if err != nil || c == nil {
		t.Fatalf("New: %v, %v", c, err)
	}

	up, err := c.PresignUpload(context.Background(), "uploads/x/report.pdf", "application/pdf", 1024)
	if err != nil {
		t.Fatalf("PresignUpload: %v", err)
	}
	if up.Method != "PUT" {
		t.Errorf("method = %q, want PUT", up.Method)
	}

	u, err := url.Parse(up.URL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	if u.Host != "s3.example.com" || u.Path != "/forms/uploads/x/report.pdf" {
		t.Errorf("URL = %s, want path-style bucket/key", up.URL)
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Error("URL is not signed")
	}

	if _, err := c.PresignUpload(context.Background(), "k", "text/plain", MaxUploadSize+1); err == nil {
		t.Error("expected an error for an oversized upload")
	}
}

func TestPresignedURL(t *testing.T) {
	c, _ := New("https://s3.example.com", "fsn1", "AKIATEST", "secrettest", "forms")
	got, err := c.PresignedURL(context.Background(), "uploads/x/report.pdf")
	if err != nil {
		t.Fatalf("PresignedURL: %v", err)
	}
	if !strings.Contains(got, "X-Amz-Expires=3600") {
		t.Errorf("download URL %q should expire after an hour", got)
	}
}
