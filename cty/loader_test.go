package cty

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoaderFallsThroughBadSources(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCTY))
	}))
	defer good.Close()

	l := NewLoader([]string{bad.URL + "/cty.dat", good.URL + "/cty.dat"}, "", 5*time.Second)
	r, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.EntryCount() == 0 {
		t.Fatal("expected entries from the second source")
	}

	state := l.State()
	if state.Status != StateOK || !state.Loaded {
		t.Fatalf("state = %+v, want ok/loaded", state)
	}
	if state.Source != good.URL+"/cty.dat" {
		t.Errorf("state source = %q, want the good URL", state.Source)
	}
}

func TestLoaderAllSourcesFailing(t *testing.T) {
	l := NewLoader([]string{filepath.Join(t.TempDir(), "missing.dat")}, "", time.Second)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected an error when every source fails")
	}
	state := l.State()
	if state.Status != StateError || state.Error == "" {
		t.Fatalf("state = %+v, want error with message", state)
	}
}

func TestLoaderIdempotent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(sampleCTY))
	}))
	defer srv.Close()

	l := NewLoader([]string{srv.URL + "/cty.dat"}, "", 5*time.Second)
	first, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Error("second Load must return the cached resolver")
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
}

func TestLoaderLocalFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cty.dat")
	if err := os.WriteFile(path, []byte(sampleCTY), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader([]string{path}, "", time.Second)
	r, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := r.Lookup("S53ZO"); !ok {
		t.Fatal("expected S53 prefix from local file")
	}
}

func TestLoaderCachesURLToDisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(sampleCTY))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	l := NewLoader([]string{srv.URL + "/cty.dat"}, cacheDir, 5*time.Second)
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "cty.dat")); err != nil {
		t.Errorf("expected cached cty.dat: %v", err)
	}
}

const samplePlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
<key>S5</key>
	<dict>
		<key>Country</key>
		<string>Slovenia</string>
		<key>Prefix</key>
		<string>S5</string>
		<key>CQZone</key>
		<integer>15</integer>
		<key>ITUZone</key>
		<integer>28</integer>
		<key>Continent</key>
		<string>EU</string>
		<key>ExactCallsign</key>
		<false/>
	</dict>
</dict>
</plist>`

func TestLoaderPlistSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cty.plist")
	if err := os.WriteFile(path, []byte(samplePlist), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader([]string{path}, "", time.Second)
	r, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	meta := r.Resolve("S53ZO", false)
	if !meta.Matched || meta.CQZone != 15 || meta.Continent != "EU" {
		t.Fatalf("plist entry not resolved: %+v", meta)
	}
}
