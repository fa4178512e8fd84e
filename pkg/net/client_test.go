package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client, err := GetHTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Jar)
}

func TestGetOAuthClient(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	client := GetOAuthClient(ctx, "test-token")
	require.NotNil(t, client)

	var v map[string]any
	require.NoError(t, GetJSON(ctx, client, srv.URL, &v))
	assert.Equal(t, "Bearer test-token", auth)
}

func TestGetClientCredentialsClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "cc-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	var auth string
	mux.HandleFunc("GET /data", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	client := GetClientCredentialsClient(ctx, srv.URL+"/token", "id", "secret")

	var v struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, GetJSON(ctx, client, srv.URL+"/data", &v))
	assert.True(t, v.OK)
	assert.Equal(t, "Bearer cc-token", auth)
}

func TestGetJSON_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			http.Error(w, "nope", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	var v map[string]any
	err := GetJSON(context.Background(), nil, srv.URL+"/missing", &v)
	assert.ErrorIs(t, err, ErrorURLNotFound)

	err = GetJSON(context.Background(), nil, srv.URL+"/forbidden", &v)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Contains(t, se.Body, "nope")
}

func TestDownloadAndFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, Download(ctx, srv.URL+"/file", path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(b))

	b, err = Fetch(ctx, srv.URL+"/file", 5)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(b))

	_, err = Fetch(ctx, srv.URL+"/missing", 5)
	assert.ErrorIs(t, err, ErrorURLNotFound)
	assert.ErrorIs(t, Download(ctx, srv.URL+"/missing", path), ErrorURLNotFound)
}

func TestPrintHTTPResponse_Nil(t *testing.T) {
	// should not panic
	PrintHTTPResponse(nil)
}

func TestPrintHTTPResponse_WithResponse(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       http.NoBody,
	}
	// should not panic
	PrintHTTPResponse(resp)
}
