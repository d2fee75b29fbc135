package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/verbatim/logger"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"meeting.mp3", "meeting.mp3"},
		{"My Interview (final).m4a", "My_Interview__final_.m4a"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\call.wav`, "call.wav"},
		{"çağrı.ogg", "_a_r_.ogg"},
		{"", "audio"},
		{"..", "audio"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUploadKey(t *testing.T) {
	digest := digestOf("RIFF....WAVEfmt ")
	key := UploadKey(digest, "0b0e6c1e", "call 1.wav")

	want := "uploads/" + digest[:8] + "/0b0e6c1e-call_1.wav"
	if key != want {
		t.Errorf("UploadKey = %q, want %q", key, want)
	}
	if got := UploadKey("abc", "id", "a.mp3"); got != "uploads/abc/id-a.mp3" {
		t.Errorf("short digest key = %q", got)
	}
}

func digestOf(s string) string {
	h := NewHasher()
	h.Write([]byte(s))
	return h.Sum()
}

func TestHasher(t *testing.T) {
	d1 := digestOf("one")
	if len(d1) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(d1))
	}
	if d1 == digestOf("two") {
		t.Error("different inputs produced the same digest")
	}

	h := NewHasher()
	if _, err := io.Copy(h, strings.NewReader("one")); err != nil {
		t.Fatal(err)
	}
	if h.Sum() != d1 {
		t.Errorf("streamed digest = %s, want %s", h.Sum(), d1)
	}
}

func TestNormalizedKey(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".flac", "normalized/job-1.flac"},
		{".wav", "normalized/job-1.wav"},
		{"wav", "normalized/job-1.wav"},
	}
	for _, tc := range tests {
		t.Run(tc.ext, func(t *testing.T) {
			if got := NormalizedKey("job-1", tc.ext); got != tc.want {
				t.Errorf("NormalizedKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Upload(ctx, "uploads/x/a.wav", strings.NewReader("pcm")); err != nil {
		t.Fatal(err)
	}
	ok, _ := m.Exists(ctx, "uploads/x/a.wav")
	if !ok {
		t.Fatal("object should exist")
	}

	ref := m.Ref("uploads/x/a.wav")
	key, ok := KeyOf(m, ref)
	if !ok || key != "uploads/x/a.wav" {
		t.Errorf("KeyOf(%q) = %q, %v", ref, key, ok)
	}
	if _, ok := KeyOf(m, "gs://bucket/uploads/x/a.wav"); ok {
		t.Error("foreign ref should not resolve")
	}

	if n, err := m.Size(ctx, "uploads/x/a.wav"); err != nil || n != 3 {
		t.Errorf("Size = %d, %v", n, err)
	}

	m.Delete(ctx, "uploads/x/a.wav")
	if _, err := m.Size(ctx, "uploads/x/a.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Size err = %v, want ErrNotFound", err)
	}
	if _, err := m.Download(ctx, "uploads/x/a.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"local defaults", Config{}, ""},
		{"memory", Config{Provider: ProviderMemory}, ""},
		{"s3 needs bucket", Config{Provider: ProviderS3}, "bucket is required"},
		{"s3 half credentials", Config{Provider: ProviderS3, Bucket: "b", AccessKey: "k"}, "must be set together"},
		{"s3 ok", Config{Provider: ProviderS3, Bucket: "b"}, ""},
		{"s3 bad ref scheme", Config{Provider: ProviderS3, Bucket: "b", RefScheme: "http"}, "ref_scheme"},
		{"gcs needs hmac keys", Config{Provider: ProviderGCS, Bucket: "b"}, "required for gcs"},
		{"gcs ok", Config{Provider: ProviderGCS, Bucket: "b", AccessKey: "GOOG1", SecretKey: "s"}, ""},
		{"unknown", Config{Provider: "ftp"}, "unsupported provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestGCSDefaults(t *testing.T) {
	cfg := Config{Provider: ProviderGCS, Bucket: "b", AccessKey: "GOOG1", SecretKey: "s"}
	cfg.ApplyDefaults()
	if cfg.Endpoint != GCSEndpoint || cfg.RefScheme != "gs" || cfg.Region != "auto" {
		t.Errorf("cfg = %+v", cfg)
	}

	s3 := Config{Provider: ProviderS3, Bucket: "b"}
	s3.ApplyDefaults()
	if s3.RefScheme != "s3" || s3.Endpoint != "" {
		t.Errorf("s3 cfg = %+v", s3)
	}
}

func TestComponentOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := NewComponent(Config{Provider: ProviderMemory}, logger.Nop())
	if h := c.Health(ctx); h.Status != "unhealthy" {
		t.Errorf("health before open = %+v", h)
	}
	s1, err := c.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Storage() != s1 {
		t.Error("Start should reuse the opened backend")
	}
	if h := c.Health(ctx); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}
}

func TestComponentUnknownProvider(t *testing.T) {
	c := NewComponent(Config{Provider: "ftp"}, logger.Nop())
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
