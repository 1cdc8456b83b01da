package cty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"howett.net/plist"

	"github.com/s53zo/RBN-spots-analysis-tool/download"
)

// Load states reported by Loader.State.
const (
	StateIdle    = "idle"
	StateLoading = "loading"
	StateOK      = "ok"
	StateError   = "error"
)

// LoadState is a pollable snapshot of the prefix database load.
type LoadState struct {
	Status  string
	Source  string // the source that produced the active table
	Error   string // last error when Status is "error"
	Loaded  bool
	Entries int
}

// Loader tries an ordered list of prefix database sources (URLs or local
// paths, CTY.DAT or cty.plist format) until one parses to at least one entry.
// URL sources are cached on disk through the download package when a cache
// directory is configured, so unchanged upstream data is not re-fetched.
type Loader struct {
	sources  []string
	cacheDir string
	timeout  time.Duration
	client   *http.Client

	mu       sync.Mutex
	state    LoadState
	resolver *Resolver
}

// NewLoader builds a loader over the candidate sources in priority order.
func NewLoader(sources []string, cacheDir string, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		sources:  sources,
		cacheDir: strings.TrimSpace(cacheDir),
		timeout:  timeout,
		client:   &http.Client{},
		state:    LoadState{Status: StateIdle},
	}
}

// State returns the current load state snapshot.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Resolver returns the active resolver, or nil before a successful Load.
func (l *Loader) Resolver() *Resolver {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolver
}

// Load walks the source list until one source yields a usable table. It is
// idempotent: once a table is loaded, the same resolver is returned without
// touching the network. All sources failing is an error state, not a panic;
// callers can continue with fallback-only resolution.
func (l *Loader) Load(ctx context.Context) (*Resolver, error) {
	l.mu.Lock()
	if l.resolver != nil {
		r := l.resolver
		l.mu.Unlock()
		return r, nil
	}
	l.state = LoadState{Status: StateLoading}
	l.mu.Unlock()

	var lastErr error
	for _, source := range l.sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		entries, err := l.loadSource(ctx, source)
		if err != nil {
			lastErr = err
			continue
		}
		if len(entries) == 0 {
			lastErr = fmt.Errorf("cty: parsed 0 prefixes from %s", source)
			continue
		}

		resolver := NewResolver(entries)
		l.mu.Lock()
		l.resolver = resolver
		l.state = LoadState{Status: StateOK, Source: source, Loaded: true, Entries: len(entries)}
		l.mu.Unlock()
		log.Printf("cty: loaded %d prefixes from %s", len(entries), source)
		return resolver, nil
	}

	if lastErr == nil {
		lastErr = errors.New("cty: no prefix database sources configured")
	}
	l.mu.Lock()
	l.state = LoadState{Status: StateError, Error: lastErr.Error()}
	l.mu.Unlock()
	return nil, lastErr
}

// loadSource fetches one source and parses it by format.
func (l *Loader) loadSource(ctx context.Context, source string) ([]PrefixEntry, error) {
	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = l.fetchURL(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("cty: load %s: %w", source, err)
	}

	if isPlistSource(source, data) {
		return parsePlist(data)
	}
	return ParseCTYDat(string(data)), nil
}

// fetchURL retrieves a URL body, going through the disk cache when one is
// configured so conditional requests can short-circuit unchanged data.
func (l *Loader) fetchURL(ctx context.Context, url string) ([]byte, error) {
	if l.cacheDir != "" {
		dest := filepath.Join(l.cacheDir, cacheFileName(url))
		_, err := download.Download(ctx, download.Request{
			URL:         url,
			Destination: dest,
			Timeout:     l.timeout,
			Client:      l.client,
		})
		if err != nil {
			// A stale cached copy is still better than nothing.
			if cached, readErr := os.ReadFile(dest); readErr == nil {
				log.Printf("cty: refresh of %s failed (%v), using cached copy", url, err)
				return cached, nil
			}
			return nil, err
		}
		return os.ReadFile(dest)
	}

	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func cacheFileName(url string) string {
	name := path.Base(strings.TrimRight(url, "/"))
	if name == "" || name == "." || name == "/" {
		name = "cty.dat"
	}
	return name
}

func isPlistSource(source string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(source), ".plist") {
		return true
	}
	head := strings.TrimSpace(string(data[:min(len(data), 64)]))
	return strings.HasPrefix(head, "<?xml") && strings.Contains(string(data[:min(len(data), 256)]), "plist")
}

// plistPrefixInfo mirrors the cty.plist per-key record layout.
type plistPrefixInfo struct {
	Country       string  `plist:"Country"`
	Prefix        string  `plist:"Prefix"`
	ADIF          int     `plist:"ADIF"`
	CQZone        int     `plist:"CQZone"`
	ITUZone       int     `plist:"ITUZone"`
	Continent     string  `plist:"Continent"`
	Latitude      float64 `plist:"Latitude"`
	Longitude     float64 `plist:"Longitude"`
	GMTOffset     float64 `plist:"GMTOffset"`
	ExactCallsign bool    `plist:"ExactCallsign"`
}

// parsePlist decodes a cty.plist body into lookup-sorted prefix entries.
func parsePlist(data []byte) ([]PrefixEntry, error) {
	var raw map[string]plistPrefixInfo
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cty: decode plist: %w", err)
	}
	entries := make([]PrefixEntry, 0, len(raw))
	for key, info := range raw {
		prefix := strings.ToUpper(strings.TrimSpace(key))
		if prefix == "" {
			continue
		}
		entries = append(entries, PrefixEntry{
			Prefix:    prefix,
			Exact:     info.ExactCallsign,
			Country:   strings.TrimSpace(info.Country),
			CQZone:    info.CQZone,
			ITUZone:   info.ITUZone,
			Continent: strings.TrimSpace(info.Continent),
			Lat:       info.Latitude,
			Lon:       info.Longitude,
			TZ:        info.GMTOffset,
		})
	}
	sortForLookup(entries)
	return entries, nil
}
