package services

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "moments/2024/05/a.png", strings.NewReader("png-bytes"), "image/png"))

	obj, err := store.Open(ctx, "moments/2024/05/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.NoError(t, obj.Close())
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, 9, obj.Size)
	assert.Equal(t, "/files/moments/2024/05/a.png", store.URL("moments/2024/05/a.png"))

	require.NoError(t, store.Delete(ctx, "moments/2024/05/a.png"))
	_, err = store.Open(ctx, "moments/2024/05/a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "moments/2024/05/a.png"), ErrObjectNotFound)
}

func TestDiskStoreStaysInRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "../../escape.txt", strings.NewReader("x"), "text/plain"))
	obj, err := store.Open(ctx, "escape.txt")
	require.NoError(t, err)
	obj.Close()

	_, err = store.Open(ctx, "moments")
	assert.Error(t, err)
	assert.Error(t, store.Put(ctx, "/", strings.NewReader("x"), "text/plain"))
}

func multipartFile(t *testing.T, filename, content string) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestUploadFile(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	file, header := multipartFile(t, "Busking.MP3", "id3")
	res, err := UploadFile(context.Background(), store, file, header, "recordings")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Path, "recordings/"))
	assert.True(t, strings.HasSuffix(res.Path, ".mp3"))
	assert.Equal(t, "audio/mpeg", res.ContentType)
	assert.Equal(t, "/files/"+res.Path, res.URL)

	obj, err := store.Open(context.Background(), res.Path)
	require.NoError(t, err)
	obj.Close()

	file, header = multipartFile(t, "script.sh", "#!/bin/sh")
	_, err = UploadFile(context.Background(), store, file, header, "recordings")
	assert.Error(t, err)
}
