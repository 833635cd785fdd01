package config

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloads struct {
	mu   sync.Mutex
	cfgs []*Config
	errs []error
}

func (r *reloads) record(cfg *Config, _ []string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfgs = append(r.cfgs, cfg)
	r.errs = append(r.errs, err)
}

func (r *reloads) last() (*Config, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cfgs) == 0 {
		return nil, 0, nil
	}
	return r.cfgs[len(r.cfgs)-1], len(r.cfgs), r.errs[len(r.errs)-1]
}

func startWatcher(t *testing.T, src Source) *reloads {
	t.Helper()
	rec := &reloads{}
	w, err := NewWatcher(src, rec.record)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return rec
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "appsettings.yaml", "logging:\n  level: INFO\n")

	rec := startWatcher(t, Source{Dir: dir, Stem: DefaultStem, Environment: "development"})

	writeFile(t, dir, "appsettings.development.yaml", "logging:\n  level: DEBUG\n")

	require.Eventually(t, func() bool {
		cfg, _, err := rec.last()
		return err == nil && cfg != nil && cfg.Logging.Level == "DEBUG"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_ReportsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, Source{Dir: dir, Stem: DefaultStem})

	writeFile(t, dir, "appsettings.yaml", "logging:\n  format: xml\n")

	require.Eventually(t, func() bool {
		cfg, n, err := rec.last()
		return n > 0 && err != nil && cfg == nil
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, Source{Dir: dir, Stem: DefaultStem})

	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "appsettings.Production.json", "{}")

	time.Sleep(200 * time.Millisecond)
	_, n, _ := rec.last()
	assert.Zero(t, n)
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(Source{Dir: filepath.Join(t.TempDir(), "missing")}, func(*Config, []string, error) {})
	assert.Error(t, err)
}
