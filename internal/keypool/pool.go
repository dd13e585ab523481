package keypool

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoKeys means the pool was constructed without any credentials.
	ErrNoKeys = errors.New("no api keys configured")
	// ErrRateLimited means every credential is cooling down.
	ErrRateLimited = errors.New("all api keys are cooling down")
)

// DefaultCooldown is applied when the server gives no Retry-After hint.
const DefaultCooldown = 5 * time.Minute

// Pool rotates through an ordered set of API credentials, skipping keys
// that are cooling down after a rate-limit response. Selection is
// serialized so concurrent callers never race to the same key.
type Pool struct {
	mu       sync.Mutex
	keys     []string
	cooldown map[string]time.Time
	cursor   int
	fallback time.Duration

	now func() time.Time
}

// New builds a pool from the given keys in order. Blank keys are dropped.
func New(keys []string, fallbackCooldown time.Duration) (*Pool, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoKeys
	}
	if fallbackCooldown <= 0 {
		fallbackCooldown = DefaultCooldown
	}
	return &Pool{
		keys:     cleaned,
		cooldown: make(map[string]time.Time),
		fallback: fallbackCooldown,
		now:      time.Now,
	}, nil
}

// Len returns the number of configured keys.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Next returns the next key in round-robin order that is not cooling
// down. When every key is cooling it fails with ErrRateLimited rather
// than blocking.
func (p *Pool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for i := 0; i < len(p.keys); i++ {
		key := p.keys[p.cursor]
		p.cursor = (p.cursor + 1) % len(p.keys)
		if expiry, cooling := p.cooldown[key]; cooling {
			if now.Before(expiry) {
				continue
			}
			delete(p.cooldown, key)
		}
		return key, nil
	}
	return "", ErrRateLimited
}

// Earliest returns the key whose cooldown expires first, with how long
// until it becomes usable. Callers that must make a call even under full
// cooldown use this instead of Next.
func (p *Pool) Earliest() (string, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	best := p.keys[0]
	bestWait := time.Duration(-1)
	for _, key := range p.keys {
		expiry, cooling := p.cooldown[key]
		if !cooling || !now.Before(expiry) {
			return key, 0
		}
		wait := expiry.Sub(now)
		if bestWait < 0 || wait < bestWait {
			best = key
			bestWait = wait
		}
	}
	return best, bestWait
}

// MarkRateLimited puts a key into cooldown. A non-positive retryAfter
// falls back to the pool's default cooldown.
func (p *Pool) MarkRateLimited(key string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = p.fallback
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldown[key] = p.now().Add(retryAfter)
}

// MarkHealthy clears any cooldown for a key after a successful call.
func (p *Pool) MarkHealthy(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cooldown, key)
}
