package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// urlCachingStorage keeps presigned download URLs in memory so listing many
// photos does not sign every key on every request.
type urlCachingStorage struct {
	FileStorage
	cache *freecache.Cache
	ttl   time.Duration
}

// WithURLCache wraps inner with a download URL cache of sizeMB megabytes.
// Entries live for ttl. A non-positive size or ttl returns inner unchanged.
func WithURLCache(inner FileStorage, sizeMB int, ttl time.Duration) FileStorage {
	if sizeMB <= 0 || ttl < time.Second {
		return inner
	}
	return &urlCachingStorage{
		FileStorage: inner,
		cache:       freecache.NewCache(sizeMB * megabyte),
		ttl:         ttl,
	}
}

func (s *urlCachingStorage) cacheKey(objectKey string) []byte {
	return []byte("get::" + objectKey)
}

// entryTTL is how long a URL signed for expires may be served from the cache:
// ttl, capped at half the signed validity.
func (s *urlCachingStorage) entryTTL(expires time.Duration) time.Duration {
	if half := expires / 2; half < s.ttl {
		return half
	}
	return s.ttl
}

// GeneratePresignedDownloadURL returns a cached URL when one exists. A URL
// served from the cache still has at least half of the requested validity
// left. Expiries under two seconds are never cached.
func (s *urlCachingStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	lifetime := s.entryTTL(expires)
	if lifetime < time.Second {
		return s.FileStorage.GeneratePresignedDownloadURL(ctx, objectKey, expires)
	}

	key := s.cacheKey(objectKey)
	if cached, err := s.cache.Get(key); err == nil {
		return string(cached), nil
	}

	url, err := s.FileStorage.GeneratePresignedDownloadURL(ctx, objectKey, expires)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(key, []byte(url), int(lifetime/time.Second)); err != nil {
		log.Debugf("url cache set for %q: %s", objectKey, err)
	}
	return url, nil
}

// PutObject uploads through the inner storage and drops any cached URL for the key.
func (s *urlCachingStorage) PutObject(ctx context.Context, objectKey string, contentType string, body io.Reader, size int64) error {
	s.cache.Del(s.cacheKey(objectKey))
	return s.FileStorage.PutObject(ctx, objectKey, contentType, body, size)
}

// DeleteObject deletes through the inner storage and drops any cached URL for the key.
func (s *urlCachingStorage) DeleteObject(ctx context.Context, objectKey string) error {
	s.cache.Del(s.cacheKey(objectKey))
	if err := s.FileStorage.DeleteObject(ctx, objectKey); err != nil {
		return fmt.Errorf("cached storage: %w", err)
	}
	return nil
}
