package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/medtriage/pkg/common/config"
)

func TestLocalDocumentStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalDocumentStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "P20000101-001_notes.txt", "text/plain", strings.NewReader("history")))

	data, err := os.ReadFile(store.Path("P20000101-001_notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "history", string(data))
}

func TestLocalDocumentStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalDocumentStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.txt", "a/b.txt", ".hidden"} {
		err := store.Put(context.Background(), key, "", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestS3DocumentStorePut(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		Credentials:                aws.AnonymousCredentials{},
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	store := NewS3DocumentStore(client, "ehr-docs")

	err := store.Put(context.Background(), "P20000101-001_labs.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/ehr-docs/P20000101-001_labs.pdf", gotPath)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "%PDF-1.4", gotBody)
}

func TestNewDocumentStoreBackends(t *testing.T) {
	store, err := NewDocumentStore(context.Background(), &config.Config{DocumentBackend: "local", UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalDocumentStore{}, store)

	_, err = NewDocumentStore(context.Background(), &config.Config{DocumentBackend: "s3"})
	assert.Error(t, err)

	_, err = NewDocumentStore(context.Background(), &config.Config{DocumentBackend: "ftp"})
	assert.Error(t, err)
}
