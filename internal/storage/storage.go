// Package storage keeps uploaded images and floor plans in a local directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"realestate/server/internal/apperr"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// maxSuffix bounds the collision search for a single filename.
const maxSuffix = 10000

type Store struct {
	dir    string
	logger *logrus.Logger
}

func NewStore(dir string, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Allowed reports whether filename carries a permitted image extension.
func Allowed(filename string) bool {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return allowedExtensions[strings.ToLower(ext)]
}

// SanitizeFilename reduces name to a safe base name made of ASCII letters,
// digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	// Drop accents, then anything outside ASCII
	decomposed := norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), "_")
	cleaned = unsafeChars.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, "._")
	return cleaned
}

// storedName is the name a validated upload is written under. Names whose
// stem sanitizes away entirely, such as Arabic or Cyrillic names, get a
// random stem and keep their lower-cased extension.
func storedName(name string) string {
	cleaned := SanitizeFilename(name)
	stem := strings.TrimSuffix(cleaned, filepath.Ext(cleaned))
	if stem != "" && Allowed(cleaned) {
		return cleaned
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return uuid.NewString() + "." + ext
}

// Validate checks every file before anything is written.
func (s *Store) Validate(files []*multipart.FileHeader) error {
	for _, fh := range files {
		if fh == nil || fh.Filename == "" {
			return apperr.Validation("empty file upload")
		}
		if !Allowed(fh.Filename) {
			return apperr.Validation("file type not allowed: %s", fh.Filename)
		}
	}
	return nil
}

// SaveAll writes a batch of files and returns the stored names in order.
// The batch is all-or-nothing: on failure the files already written are
// removed again.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if err := s.Validate(files); err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.save(fh)
		if err != nil {
			s.Remove(saved...)
			return nil, err
		}
		saved = append(saved, name)
	}
	return saved, nil
}

// Save stores a single file.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	names, err := s.SaveAll([]*multipart.FileHeader{fh})
	if err != nil {
		return "", err
	}
	return names[0], nil
}

func (s *Store) save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, name, err := s.create(storedName(fh.Filename))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("failed to close upload: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"filename": name,
		"size":     fh.Size,
	}).Info("Stored upload")
	return name, nil
}

// create opens a new file for name, appending _1, _2, ... before the
// extension until the name is free.
func (s *Store) create(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; i <= maxSuffix; i++ {
		f, err := os.OpenFile(filepath.Join(s.dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create upload file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return nil, "", fmt.Errorf("no free filename for %s", name)
}

// Remove deletes stored files, logging failures.
func (s *Store) Remove(names ...string) {
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, filepath.Base(name))); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WithError(err).WithField("filename", name).Warn("Failed to remove upload")
		}
	}
}

// Path resolves a stored filename for serving. Names that are not plain
// base names or do not exist are NotFound.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", apperr.NotFound("File not found")
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperr.NotFound("File not found")
	}
	return path, nil
}
