package storage

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"realestate/server/internal/apperr"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := NewStore(t.TempDir(), logger)
	require.NoError(t, err)
	return store
}

func fileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data:" + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["images"]
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo.PNG", "my_photo.PNG"},
		{"../../etc/passwd.png", "passwd.png"},
		{`C:\Users\me\plan.webp`, "plan.webp"},
		{"café.jpeg", "cafe.jpeg"},
		{"..hidden.gif", "hidden.gif"},
		{"шаблон.png", "png"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.in))
		})
	}
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("a.PNG"))
	assert.True(t, Allowed("a.jpeg"))
	assert.True(t, Allowed("a.webp"))
	assert.False(t, Allowed("a.pdf"))
	assert.False(t, Allowed("noext"))
}

func TestSaveAllResolvesCollisions(t *testing.T) {
	store := newTestStore(t)

	names, err := store.SaveAll(fileHeaders(t, "plan.png", "plan.png", "plan.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{"plan.png", "plan_1.png", "plan_2.png"}, names)

	names, err = store.SaveAll(fileHeaders(t, "plan.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{"plan_3.png"}, names)

	data, err := os.ReadFile(filepath.Join(store.Dir(), "plan_3.png"))
	require.NoError(t, err)
	assert.Equal(t, "data:plan.png", string(data))
}

func TestSaveAllNamesNonLatinFiles(t *testing.T) {
	store := newTestStore(t)

	names, err := store.SaveAll(fileHeaders(t, "شقة.jpg", "планировка.PNG", "café.jpg"))
	require.NoError(t, err)
	require.Len(t, names, 3)
	assert.Regexp(t, `^[0-9a-f-]{36}\.jpg$`, names[0])
	assert.Regexp(t, `^[0-9a-f-]{36}\.png$`, names[1])
	assert.Equal(t, "cafe.jpg", names[2])

	data, err := os.ReadFile(filepath.Join(store.Dir(), names[0]))
	require.NoError(t, err)
	assert.Equal(t, "data:شقة.jpg", string(data))
}

func TestSaveAllRejectsBatchWithDisallowedFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveAll(fileHeaders(t, "ok.jpg", "script.exe"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPath(t *testing.T) {
	store := newTestStore(t)
	name, err := store.Save(fileHeaders(t, "logo.gif")[0])
	require.NoError(t, err)

	path, err := store.Path(name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "logo.gif"), path)

	for _, bad := range []string{"", "..", "../logo.gif", "missing.png"} {
		_, err := store.Path(bad)
		assert.True(t, apperr.Is(err, apperr.KindNotFound), bad)
	}

	store.Remove(name)
	_, err = store.Path(name)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
