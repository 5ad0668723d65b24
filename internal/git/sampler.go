package git

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/Strob0t/AgentGuild/internal/port/cache"
)

// Meta is the best-effort git metadata for one working directory.
type Meta struct {
	Branch string `json:"branch"`
	Dirty  bool   `json:"dirty"`
}

// Sampler reads git metadata with shallow CLI calls. Lookups are memoized
// through the cache so concurrent sessions in the same directory share one
// sample per TTL window. Failures, including a saturated pool shedding the
// sample, are the caller's to swallow: a directory without git simply has
// no metadata.
type Sampler struct {
	pool  *Pool
	cache cache.Cache
	ttl   time.Duration
}

// NewSampler creates a Sampler. cache may be nil to disable memoization.
func NewSampler(pool *Pool, c cache.Cache, ttl time.Duration) *Sampler {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Sampler{pool: pool, cache: c, ttl: ttl}
}

// Sample returns the current branch and dirty flag for dir.
func (s *Sampler) Sample(ctx context.Context, dir string) (Meta, error) {
	key := "gitmeta:" + dir
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var m Meta
			if err := json.Unmarshal(data, &m); err == nil {
				return m, nil
			}
		}
	}

	var m Meta
	err := s.pool.Run(ctx, func() error {
		branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return err
		}
		m.Branch = branch

		status, err := gitOutput(ctx, dir, "status", "--porcelain")
		if err != nil {
			return err
		}
		m.Dirty = status != ""
		return nil
	})
	if err != nil {
		return Meta{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(m); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}
	return m, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	full := append([]string{"-C", dir}, args...)
	out, err := exec.CommandContext(ctx, "git", full...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
