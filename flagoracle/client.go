package flagoracle

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loufret/fivefret/fret"
)

// minPollInterval is the background poll period against GET /flags/status,
// mirroring the teacher's one-second main.go ticker driving watcher.Tick():
// a goroutine owns the network I/O entirely off the engine's call stack, so
// IsFlagSet (called every engine tick, spec.md §5 forbids blocking I/O in
// the engine) only ever reads the last-fetched snapshot under a lock.
const minPollInterval = 200 * time.Millisecond

// HTTPOracle is a fret.FlagOracle backed by a remote flagoracle.Server. A
// background goroutine polls GET /flags/status every minPollInterval;
// IsFlagSet never performs I/O itself. Callers must call Close when done
// with the oracle to stop the poll loop.
type HTTPOracle struct {
	baseURL string
	client  *http.Client

	mu       sync.RWMutex
	snapshot map[uuid.UUID]map[fret.ProfileFlag]bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHTTPOracle returns an HTTPOracle polling baseURL (e.g.
// "http://localhost:8080"). It fetches an initial snapshot synchronously
// (construction happens once, outside any tick loop) before starting the
// background poll loop, so the first IsFlagSet call doesn't see an empty
// cache.
func NewHTTPOracle(baseURL string) *HTTPOracle {
	o := &HTTPOracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Second},
		stop:    make(chan struct{}),
	}
	o.refresh()
	go o.pollLoop()
	return o
}

// Close stops the background poll loop. Safe to call more than once.
func (o *HTTPOracle) Close() {
	o.stopOnce.Do(func() { close(o.stop) })
}

func (o *HTTPOracle) pollLoop() {
	ticker := time.NewTicker(minPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			o.refresh()
		case <-o.stop:
			return
		}
	}
}

// IsFlagSet implements fret.FlagOracle by reading the last-fetched
// snapshot. A fetch failure in the background loop logs a warning and
// leaves the last good snapshot in place (or false if none exists yet), per
// spec.md §7's "external control plane errors are logged and non-fatal".
func (o *HTTPOracle) IsFlagSet(profileID uuid.UUID, flag fret.ProfileFlag) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshot[profileID][flag]
}

func (o *HTTPOracle) refresh() {
	resp, err := o.client.Get(o.baseURL + "/flags/status")
	if err != nil {
		logger.Warn("flagoracle: status fetch failed", "err", err)
		return
	}
	defer resp.Body.Close()

	var raw map[string]map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		logger.Warn("flagoracle: status decode failed", "err", err)
		return
	}

	parsed := make(map[uuid.UUID]map[fret.ProfileFlag]bool, len(raw))
	for idStr, flags := range raw {
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		m := make(map[fret.ProfileFlag]bool, len(flags))
		for name, enabled := range flags {
			if flag, ok := parseFlagName(name); ok {
				m[flag] = enabled
			}
		}
		parsed[id] = m
	}

	o.mu.Lock()
	o.snapshot = parsed
	o.mu.Unlock()
}
