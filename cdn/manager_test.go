package cdn

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	return Config{
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Endpoint:        endpoint,
		Region:          "auto",
		Bucket:          "artifacts",
		BasePath:        "files",
		PipelineName:    "Flutter-pipeline",
		CdnURL:          "https://cdn.example.com",
		UsePathStyle:    true,
	}
}

func TestObjectKey(t *testing.T) {
	m := NewManager(testConfig("https://s3.example.com"))

	assert.Equal(t,
		"files/builds/Flutter-pipeline/build-42/app.ipa",
		m.ObjectKey("app.ipa", "42"))
	assert.Equal(t,
		"files/builds/Flutter-pipeline/build-42/metadata.json",
		m.ObjectKey("metadata.json", "42"))
}

func TestRequestUpload_DescriptorsShareBuildPrefix(t *testing.T) {
	m := NewManager(testConfig("https://s3.example.com"))

	packageDesc, metadataDesc, err := m.RequestUpload(context.Background(), "app.ipa", "42", time.Hour)
	require.NoError(t, err)

	prefix := "files/builds/Flutter-pipeline/build-42/"
	assert.True(t, strings.HasPrefix(packageDesc.ObjectKey, prefix))
	assert.True(t, strings.HasPrefix(metadataDesc.ObjectKey, prefix))
	assert.Equal(t, prefix+"app.ipa", packageDesc.ObjectKey)
	assert.Equal(t, prefix+"metadata.json", metadataDesc.ObjectKey)

	// Presigned PUT URLs carry the signature and the requested TTL.
	assert.Contains(t, packageDesc.UploadURL, "X-Amz-Signature=")
	assert.Contains(t, packageDesc.UploadURL, "X-Amz-Expires=3600")
	assert.EqualValues(t, 3600, packageDesc.ExpiresInSec)
	assert.Contains(t, metadataDesc.UploadURL, "build-42")
}

func TestPublicURL(t *testing.T) {
	m := NewManager(testConfig("https://s3.example.com"))

	assert.Equal(t,
		"https://cdn.example.com/files/builds/Flutter-pipeline/build-42/app.ipa",
		m.PublicURL("files/builds/Flutter-pipeline/build-42/app.ipa"))
}

func TestUploadFile(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			gotPath = r.URL.Path
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("ETag", `"abc"`)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewManager(testConfig(srv.URL))

	url, err := m.UploadFile(context.Background(), m.ObjectKey("manifest.plist", "42"), []byte("<plist/>"), "application/xml")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/files/builds/Flutter-pipeline/build-42/manifest.plist", url)
	assert.Equal(t, "/artifacts/files/builds/Flutter-pipeline/build-42/manifest.plist", gotPath)
	assert.Equal(t, "<plist/>", string(gotBody))
}

func TestUploadMultipleFiles_AllOrNothing(t *testing.T) {
	var mu sync.Mutex
	var deleted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "broken"):
			w.WriteHeader(http.StatusInternalServerError)
		case r.Method == http.MethodPut:
			w.Header().Set("ETag", `"abc"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Query().Has("delete"):
			mu.Lock()
			deleted = true
			mu.Unlock()
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	m := NewManager(testConfig(srv.URL))

	_, err := m.UploadMultipleFiles(context.Background(), []File{
		{Key: m.ObjectKey("app.apk", "7"), Body: []byte("apk-bytes"), ContentType: "application/octet-stream"},
		{Key: m.ObjectKey("broken.json", "7"), Body: []byte("{}"), ContentType: "application/json"},
	})
	require.Error(t, err)

	// The aggregate failed, so the key that did land was removed.
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, deleted)
}

func TestUploadMultipleFiles_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewManager(testConfig(srv.URL))

	urls, err := m.UploadMultipleFiles(context.Background(), []File{
		{Key: m.ObjectKey("app.apk", "7"), Body: []byte("apk-bytes"), ContentType: "application/octet-stream"},
		{Key: m.ObjectKey("metadata.json", "7"), Body: []byte("{}"), ContentType: "application/json"},
	})
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://cdn.example.com/files/builds/Flutter-pipeline/build-7/app.apk", urls[0])
	assert.Equal(t, "https://cdn.example.com/files/builds/Flutter-pipeline/build-7/metadata.json", urls[1])
}
