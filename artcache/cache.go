// Package artcache stores album art received from the companion device and
// tracks art transfers in flight.
package artcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Cache maps art URLs to files named after the MD5 digest of the URL.
type Cache struct {
	fs  afero.Afero
	dir string
}

func New(fs afero.Fs, dir string) *Cache {
	return &Cache{fs: afero.Afero{Fs: fs}, dir: dir}
}

// Normalize trims the URL and lowercases its scheme and host, so that
// equivalent spellings share a cache entry and a transfer slot.
func Normalize(rawUrl string) string {
	trimmed := strings.TrimSpace(rawUrl)
	parsed, parseErr := url.Parse(trimmed)
	if parseErr != nil || parsed.Scheme == "" {
		return trimmed
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String()
}

func Key(rawUrl string) string {
	digest := md5.Sum([]byte(Normalize(rawUrl)))
	return hex.EncodeToString(digest[:])
}

func (c *Cache) Path(rawUrl string) string {
	return filepath.Join(c.dir, Key(rawUrl))
}

// Lookup returns the cached file for the URL, if any.
func (c *Cache) Lookup(rawUrl string) (string, bool) {
	path := c.Path(rawUrl)
	info, statErr := c.fs.Stat(path)
	if statErr != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return path, true
}

// Store writes the art and returns its path. The file is written under a
// temporary name first so a reader never sees a partial file.
func (c *Cache) Store(rawUrl string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty art payload for %s", rawUrl)
	}
	if mkdirErr := c.fs.MkdirAll(c.dir, 0o755); mkdirErr != nil {
		return "", fmt.Errorf("create art cache: %w", mkdirErr)
	}
	path := c.Path(rawUrl)
	tmpPath := path + ".part"
	if writeErr := c.fs.WriteFile(tmpPath, data, 0o644); writeErr != nil {
		return "", fmt.Errorf("write art: %w", writeErr)
	}
	if renameErr := c.fs.Rename(tmpPath, path); renameErr != nil {
		_ = c.fs.Remove(tmpPath)
		return "", fmt.Errorf("commit art: %w", renameErr)
	}
	return path, nil
}

// FileURI turns a cache path into the URI exposed in metadata.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

// LocalPath returns the filesystem path of a file:// URI.
func LocalPath(rawUrl string) (string, bool) {
	parsed, parseErr := url.Parse(strings.TrimSpace(rawUrl))
	if parseErr != nil || !strings.EqualFold(parsed.Scheme, "file") || parsed.Path == "" {
		return "", false
	}
	return parsed.Path, true
}
