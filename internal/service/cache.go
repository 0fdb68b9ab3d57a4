package service

import (
	"context"
	"fmt"

	"github.com/Huy1073hello/jbundle/internal/jdk"
	"github.com/Huy1073hello/jbundle/internal/platform"
)

// CacheService reports on and purges the runtime cache.
type CacheService struct {
	cache    *jdk.Cache
	detector platform.Detector
}

// NewCacheService creates a cache service. detector may be nil, in which
// case Info reports no host details.
func NewCacheService(cache *jdk.Cache, detector platform.Detector) *CacheService {
	return &CacheService{cache: cache, detector: detector}
}

// InfoResult describes the cache contents and the host.
type InfoResult struct {
	CacheDir string
	Size     int64
	Entries  []jdk.Entry
	Host     platform.Target
	Platform *platform.Info
}

// Info collects cache statistics. Host detection problems are not fatal.
func (s *CacheService) Info(ctx context.Context) (*InfoResult, error) {
	entries, err := s.cache.Entries()
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}

	result := &InfoResult{
		CacheDir: s.cache.Root(),
		Size:     total,
		Entries:  entries,
		Host:     platform.Current(),
	}

	if s.detector != nil {
		if info, err := s.detector.Detect(ctx); err == nil {
			result.Platform = info
		}
	}
	return result, nil
}

// Clean removes the whole cache and returns the number of bytes freed.
func (s *CacheService) Clean() (int64, error) {
	freed, err := s.cache.Clean()
	if err != nil {
		return 0, fmt.Errorf("clean cache: %w", err)
	}
	return freed, nil
}
