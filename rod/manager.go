package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/searchcrawl"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages served by one browser
// process before it is replaced.
const DefaultMaxPages = 75

// BrowserManager leases browser instances to callers and replaces the
// current instance after it has served maxPages pages. Chrome accumulates
// memory over time and the baseline never returns to initial levels even
// with proper page cleanup, so long crawls need fresh processes.
//
// A replaced instance is retired, not closed: it stays alive until every
// page leased from it has been released.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu        sync.Mutex
	current   *instance
	instances map[*instance]struct{}
	maxPages  int
	closed    bool
}

// instance is one browser process and its lease bookkeeping.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	served   int
	active   int
	retired  bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages one browser serves before it is replaced.
// Values below 1 are ignored.
func WithMaxPages(n int) ManagerOption {
	return func(bm *BrowserManager) {
		if n > 0 {
			bm.maxPages = n
		}
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages:  DefaultMaxPages,
		instances: make(map[*instance]struct{}),
	}
	for _, opt := range opts {
		opt(bm)
	}

	inst, err := launchBrowser()
	if err != nil {
		return nil, err
	}
	bm.current = inst
	bm.instances[inst] = struct{}{}

	return bm, nil
}

// Acquire leases the current browser for one page. The returned release
// function must be called once the page is closed; calling it more than once
// has no effect.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, searchcrawl.Errorf(searchcrawl.EINVALID, "browser manager closed")
	}

	if bm.current.served >= bm.maxPages {
		bm.replace()
	}

	inst := bm.current
	inst.served++
	inst.active++

	var once sync.Once
	release := func() {
		once.Do(func() { bm.release(inst) })
	}
	return inst.browser, release, nil
}

func (bm *BrowserManager) release(inst *instance) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	inst.active--
	if inst.retired && inst.active == 0 {
		bm.shutdown(inst)
	}
}

// replace launches a fresh browser and retires the current one.
// If the launch fails the current browser keeps serving.
// Must be called with mu held.
func (bm *BrowserManager) replace() {
	next, err := launchBrowser()
	if err != nil {
		return
	}

	old := bm.current
	old.retired = true
	if old.active == 0 {
		bm.shutdown(old)
	}

	bm.current = next
	bm.instances[next] = struct{}{}
}

// Close shuts down every browser process, including retired ones that still
// have pages leased. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	var firstErr error
	for inst := range bm.instances {
		if err := bm.shutdown(inst); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// shutdown closes an instance's browser and kills its launcher.
// Must be called with mu held.
func (bm *BrowserManager) shutdown(inst *instance) error {
	if _, ok := bm.instances[inst]; !ok {
		return nil
	}
	delete(bm.instances, inst)

	err := inst.browser.Close()
	inst.launcher.Kill()
	return err
}

// launchBrowser starts a new browser instance with stability flags.
func launchBrowser() (*instance, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &instance{browser: browser, launcher: lnchr}, nil
}

// LauncherPID returns the process ID of the current browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.closed || bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}
