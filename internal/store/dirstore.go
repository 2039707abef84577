package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"photo-pipeline/internal/logging"
)

// RetryConfig controls retry behavior for reads on NFS-backed roots.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// DirStore stores each image as a flat file under root.
type DirStore struct {
	root  string
	retry RetryConfig
}

// NewDirStore creates the root directory if needed and returns a store
// over it.
func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, errors.New("store: empty root directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root %s: %w", root, err)
	}
	return &DirStore{root: root, retry: DefaultRetryConfig()}, nil
}

// Root returns the store's root directory.
func (s *DirStore) Root() string {
	return s.root
}

// pathFor validates id and returns its on-disk path. Identifiers are flat
// names; anything with a path separator or traversal component is rejected
// so an id can never address a file outside the root.
func (s *DirStore) pathFor(id string) (string, error) {
	if id == "" || id == "." || id == ".." {
		return "", ErrInvalidID
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return "", ErrInvalidID
	}
	return filepath.Join(s.root, id), nil
}

// ReadFile returns the stored bytes for id, retrying stale file handle
// errors with exponential backoff.
func (s *DirStore) ReadFile(id string) ([]byte, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}

	backoff := s.retry.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		data, err := os.ReadFile(path)
		if err == nil {
			if attempt > 0 {
				logging.Info("store: read %s succeeded on retry %d", id, attempt)
			}
			return data, nil
		}
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		lastErr = err
		if !isStaleHandle(err) {
			return nil, fmt.Errorf("store: read %s: %w", id, err)
		}
		if attempt < s.retry.MaxRetries {
			logging.Debug("store: stale handle reading %s, retrying in %v (attempt %d/%d)",
				id, backoff, attempt+1, s.retry.MaxRetries)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > s.retry.MaxBackoff {
				backoff = s.retry.MaxBackoff
			}
		}
	}

	logging.Warn("store: read %s failed after %d retries: %v", id, s.retry.MaxRetries, lastErr)
	return nil, fmt.Errorf("store: read %s: %w", id, lastErr)
}

// WriteFile stores data under id. The write goes to a temp file in the same
// directory and is renamed into place, so concurrent readers see either the
// old content or the new, never a torn file.
func (s *DirStore) WriteFile(id string, data []byte) error {
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: temp file for %s: %w", id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp for %s: %w", id, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename %s: %w", id, err)
	}
	return nil
}

// DeleteFile removes the stored file for id.
func (s *DirStore) DeleteFile(id string) error {
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a file is stored under id.
func (s *DirStore) Exists(id string) bool {
	path, err := s.pathFor(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List returns every stored identifier, sorted. Temp files from in-flight
// writes are excluded.
func (s *DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// isStaleHandle checks for ESTALE, the NFS stale file handle errno.
func isStaleHandle(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}
