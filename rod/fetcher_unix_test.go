//go:build integration && !windows

package rod_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/fwojciec/searchcrawl/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alive reports whether a process with pid exists. Signal 0 probes without
// delivering anything.
func alive(pid int) bool {
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}

func TestFetcher_Close_KillsLauncherProcess(t *testing.T) {
	t.Parallel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)

	pid := fetcher.LauncherPID()
	require.NotZero(t, pid)
	require.True(t, alive(pid))

	require.NoError(t, fetcher.Close())

	assert.Eventually(t, func() bool { return !alive(pid) }, 2*time.Second, 50*time.Millisecond)
	assert.Zero(t, fetcher.LauncherPID())
}

func TestFetcher_Recycle_KillsRetiredLauncher(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, `<html><body>ok</body></html>`)

	fetcher, err := rod.NewFetcher(rod.WithPagesPerBrowser(1))
	require.NoError(t, err)
	defer fetcher.Close()

	_, err = fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	first := fetcher.LauncherPID()

	// The second page exceeds the limit, so the first browser is retired and,
	// having no leased pages left, shut down.
	_, err = fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.NotEqual(t, first, fetcher.LauncherPID())
	assert.Eventually(t, func() bool { return !alive(first) }, 2*time.Second, 50*time.Millisecond)
}
