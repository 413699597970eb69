package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStorage_Upload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/resumes/resumes/s1_123", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("%PDF"), body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	s := NewSupabaseStorage(ts.URL+"/", "service-key", "resumes")
	require.NoError(t, s.Upload("resumes/s1_123", "application/pdf", []byte("%PDF")))
}

func TestSupabaseStorage_UploadFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket missing", http.StatusNotFound)
	}))
	defer ts.Close()

	s := NewSupabaseStorage(ts.URL, "service-key", "resumes")
	assert.Error(t, s.Upload("key", "application/pdf", nil))
}

func TestSupabaseStorage_MissingConfig(t *testing.T) {
	s := NewSupabaseStorage("", "", "resumes")
	assert.Error(t, s.Upload("key", "application/pdf", nil))
}
