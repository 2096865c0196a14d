package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/testutil"
)

func copyFixture(t *testing.T, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testDataDir, name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func TestServeListener_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	copyFixture(t, dir, "reimbursements.csv")

	logger := testutil.NewTestLogger(t)
	catalog, err := erp.Load(context.Background(), dir, nil, logger)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Count())

	s := NewServer(Config{
		Catalog:  catalog,
		DataDir:  dir,
		Watch:    true,
		Debounce: 20 * time.Millisecond,
		Logger:   logger,
	})
	updates := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(updates)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	// The watcher is registered asynchronously; keep touching the file
	// until a reload is observed.
	reloaded := false
	deadline := time.After(5 * time.Second)
	for !reloaded {
		copyFixture(t, dir, "invoices.csv")
		select {
		case <-updates:
			reloaded = true
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("catalog was not reloaded")
		}
	}
	assert.Equal(t, []string{"invoices", "reimbursements"}, catalog.Names())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestReload_KeepsCatalogOnError(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "budget.yaml")

	catalog, err := erp.Load(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	logs, logger := testutil.NewLogRecorder(t)
	s := NewServer(Config{Catalog: catalog, DataDir: dir, Logger: logger})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "budget.yaml"), []byte("- id: [oops"), 0o600))
	require.Error(t, s.Reload(context.Background()))
	assert.Equal(t, []string{"budget"}, catalog.Names())
	assert.Contains(t, logs.Messages(slog.LevelError), "reload failed, keeping current datasets")

	copyFixture(t, dir, "issues.json")
	require.NoError(t, os.Remove(filepath.Join(dir, "budget.yaml")))
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, []string{"issues"}, catalog.Names())
	rec, ok := logs.Find("catalog reloaded")
	require.True(t, ok)
	assert.EqualValues(t, 1, rec.Attrs["datasets"])
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "data/invoices.csv", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "data/issues.json", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "data/budget.yml", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "data/budget.xlsx", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "data/invoices.csv", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "data/notes.txt", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "data/.invoices.csv", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}

func TestNotifier(t *testing.T) {
	n := NewNotifier()

	ch1 := n.Subscribe()
	ch2 := n.Subscribe()
	assert.Equal(t, 2, n.Listeners())

	n.Broadcast()
	// A second broadcast must not block on full channels.
	n.Broadcast()

	for _, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("listener did not receive broadcast")
		}
	}

	n.Unsubscribe(ch1)
	n.Unsubscribe(ch2)
	assert.Equal(t, 0, n.Listeners())

	_, open := <-ch1
	assert.False(t, open)
}
