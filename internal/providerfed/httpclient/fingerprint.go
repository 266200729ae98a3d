package httpclient

import "sync"

// defaultUserAgents is a pool of common desktop browser fingerprints
// for scrape-style endpoints that block obvious bots. Kept current-ish
// rather than exhaustive; rotation matters more than freshness.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
}

// UARotator cycles through a pool of User-Agent fingerprints. Each
// Next() advances; the client caches the returned value until a
// 403/429 tells it the current one is burned.
type UARotator struct {
	mu   sync.Mutex
	pool []string
	idx  int
}

// NewUARotator builds a rotator over pool, or the default browser pool
// when pool is empty.
func NewUARotator(pool []string) *UARotator {
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	return &UARotator{pool: append([]string(nil), pool...)}
}

func (r *UARotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua := r.pool[r.idx]
	r.idx = (r.idx + 1) % len(r.pool)
	return ua
}
