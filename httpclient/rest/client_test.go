package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/verbatim/httpclient"
)

type operation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func TestGetAndPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"name":"op-1"}`))
		case http.MethodGet:
			w.Write([]byte(`{"name":"op-1","done":true}`))
		}
	}))
	defer srv.Close()

	c, err := New(httpclient.Config{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	created, err := Post[operation](context.Background(), c, "/speech:longrunningrecognize", map[string]any{"config": map[string]any{}})
	if err != nil || created.Data.Name != "op-1" {
		t.Fatalf("Post = %+v, %v", created, err)
	}
	got, err := Get[operation](context.Background(), c, "/operations/op-1")
	if err != nil || !got.Data.Done {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestErrorBodyDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad audio"}}`))
	}))
	defer srv.Close()

	c, _ := New(httpclient.Config{BaseURL: srv.URL})
	resp, err := Get[operation](context.Background(), c, "/")
	if err == nil {
		t.Fatal("expected error")
	}
	if resp == nil || resp.Data.Error == nil || resp.Data.Error.Message != "bad audio" {
		t.Errorf("resp = %+v", resp)
	}
}
