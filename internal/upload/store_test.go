package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func fileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func TestSavePNG(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20, nil)
	require.NoError(t, err)

	name, err := store.Save(fileHeader(t, "image", "avatar.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	written, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, written)
}

func TestSaveRejectsNonImage(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20, nil)
	require.NoError(t, err)

	_, err = store.Save(fileHeader(t, "image", "evil.png", []byte("#!/bin/sh\necho hi\n")))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsOversize(t *testing.T) {
	store, err := NewStore(t.TempDir(), 10, nil)
	require.NoError(t, err)

	_, err = store.Save(fileHeader(t, "image", "big.png", pngBytes))
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestSaveRequiresFile(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0, nil)
	require.NoError(t, err)

	_, err = store.Save(nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestRemove(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20, nil)
	require.NoError(t, err)

	name, err := store.Save(fileHeader(t, "image", "a.png", pngBytes))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	_, err = os.Stat(filepath.Join(store.Dir(), name))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Remove(name))
	require.NoError(t, store.Remove(""))
}

func TestRemoveStaysInsideDir(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	store, err := NewStore(filepath.Join(root, "uploads"), 1<<20, nil)
	require.NoError(t, err)

	require.NoError(t, store.Remove("../keep.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
