package security

import (
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeServerCA stores the test server's certificate as a PEM CA bundle.
func writeServerCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(path, block, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildDisabled(t *testing.T) {
	for name, cfg := range map[string]*TLSConfig{"nil": nil, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			got, err := cfg.Build()
			if err != nil || got != nil {
				t.Errorf("Build() = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr string
	}{
		{"ok", TLSConfig{CAFile: "ca.pem", MinVersion: "1.3"}, ""},
		{"cert without key", TLSConfig{CertFile: "c.pem"}, "set together"},
		{"key without cert", TLSConfig{KeyFile: "k.pem"}, "set together"},
		{"bad version", TLSConfig{MinVersion: "1.0"}, "min_version"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestBuildVersionAndServerName(t *testing.T) {
	cfg := &TLSConfig{ServerName: "whisper.internal", MinVersion: "1.3"}
	got, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got.ServerName != "whisper.internal" || got.MinVersion != tls.VersionTLS13 {
		t.Errorf("config = %+v", got)
	}

	got, _ = (&TLSConfig{SkipVerify: true}).Build()
	if got.MinVersion != tls.VersionTLS12 || !got.InsecureSkipVerify {
		t.Errorf("defaults = %+v", got)
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	os.WriteFile(garbage, []byte("not a certificate"), 0o600)

	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr string
	}{
		{"missing ca", TLSConfig{CAFile: filepath.Join(dir, "none.pem")}, "read ca_file"},
		{"garbage ca", TLSConfig{CAFile: garbage}, "no certificates"},
		{"bad pair", TLSConfig{CertFile: garbage, KeyFile: garbage}, "client certificate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Build()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestCAFileTrustsPrivateServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	get := func(cfg *tls.Config) error {
		tr := &http.Transport{TLSClientConfig: cfg}
		defer tr.CloseIdleConnections()
		resp, err := (&http.Client{Transport: tr}).Get(srv.URL)
		if err == nil {
			resp.Body.Close()
		}
		return err
	}

	if err := get(nil); err == nil {
		t.Fatal("expected verification failure with system roots")
	}

	cfg, err := (&TLSConfig{CAFile: writeServerCA(t, srv)}).Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := get(cfg); err != nil {
		t.Errorf("with ca_file: %v", err)
	}
}
