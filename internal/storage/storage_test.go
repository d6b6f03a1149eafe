package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	calls    int
	failures int // fail the first N calls
	lastKey  string
	lastType string
	lastBody []byte
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	f.lastKey = *input.Key
	f.lastType = *input.ContentType
	f.lastBody, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

func testUploader(client s3Client) *Uploader {
	return &Uploader{
		cfg: Config{
			Endpoint:  "https://s3.test",
			Bucket:    "editions",
			AccessKey: "key",
			SecretKey: "secret",
		},
		client: client,
	}
}

func TestUploadReturnsPublicURL(t *testing.T) {
	fake := &fakeS3{}
	u := testUploader(fake)

	url, err := u.Upload(context.Background(), "editions/pub1/oct.pdf", "application/pdf", []byte("%PDF-"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://s3.test/editions/editions/pub1/oct.pdf" {
		t.Errorf("url = %q", url)
	}
	if fake.lastType != "application/pdf" {
		t.Errorf("content type = %q", fake.lastType)
	}
	if string(fake.lastBody) != "%PDF-" {
		t.Errorf("body = %q", fake.lastBody)
	}
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	fake := &fakeS3{failures: 2}
	u := testUploader(fake)

	_, err := u.Upload(context.Background(), "k", "application/pdf", []byte("x"))
	if err != nil {
		t.Fatalf("upload should succeed after retries: %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestUploadGivesUpAfterMaxRetries(t *testing.T) {
	fake := &fakeS3{failures: 10}
	u := testUploader(fake)

	_, err := u.Upload(context.Background(), "k", "application/pdf", []byte("x"))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fake.calls != 4 {
		t.Errorf("calls = %d, want initial attempt plus 3 retries", fake.calls)
	}
}

func TestUploadDisabled(t *testing.T) {
	u := &Uploader{cfg: Config{}}
	if u.Enabled() {
		t.Error("unconfigured uploader should report disabled")
	}
	if _, err := u.Upload(context.Background(), "k", "application/pdf", nil); err == nil {
		t.Error("upload on disabled storage should fail")
	}
}

func TestPublicURLPrefersConfiguredBase(t *testing.T) {
	u := testUploader(&fakeS3{})
	u.cfg.PublicBaseURL = "https://cdn.citypulse.test/"

	if got := u.publicURL("a/b.pdf"); got != "https://cdn.citypulse.test/a/b.pdf" {
		t.Errorf("url = %q", got)
	}
}
