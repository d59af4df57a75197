package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// maxInstanceErrors is how many failed captures mark an instance unhealthy
const maxInstanceErrors = 3

// browserInstance represents a single browser in the pool
type browserInstance struct {
	ctx        context.Context
	cancel     context.CancelFunc
	inUse      bool
	healthy    bool
	lastUsed   time.Time
	errorCount int
}

// startFunc launches one browser and returns its context
type startFunc func(opts []chromedp.ExecAllocatorOption) (context.Context, context.CancelFunc, error)

// browserPool manages lazily started browser instances
type browserPool struct {
	mu        sync.Mutex
	instances []*browserInstance
	size      int
	opts      []chromedp.ExecAllocatorOption
	start     startFunc
}

// allocatorOptions are the headless flags used for DOM capture
func allocatorOptions(userAgent string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-pings", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("allow-insecure-localhost", true),
		chromedp.WindowSize(1280, 720),
	}
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	return opts
}

// startBrowser launches a browser and pre-warms it
func startBrowser(opts []chromedp.ExecAllocatorOption) (context.Context, context.CancelFunc, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, nil, err
	}
	return ctx, func() {
		cancel()
		allocCancel()
	}, nil
}

func newBrowserPool(size int, opts []chromedp.ExecAllocatorOption, start startFunc) *browserPool {
	if size <= 0 {
		size = 2
	}
	if start == nil {
		start = startBrowser
	}
	return &browserPool{size: size, opts: opts, start: start}
}

// acquire returns an idle healthy instance, recycling an unhealthy one or
// starting a new one while the pool is below size
func (p *browserPool) acquire() (*browserInstance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, inst := range p.instances {
		if !inst.inUse && inst.healthy {
			inst.inUse = true
			inst.lastUsed = time.Now()
			return inst, nil
		}
	}

	for i, inst := range p.instances {
		if inst.inUse || inst.healthy {
			continue
		}
		if inst.cancel != nil {
			inst.cancel()
		}
		fresh, err := p.newInstance()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}
		p.instances[i] = fresh
		return fresh, nil
	}

	if len(p.instances) < p.size {
		fresh, err := p.newInstance()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}
		p.instances = append(p.instances, fresh)
		return fresh, nil
	}

	// No available instance (fail fast)
	return nil, ErrBrowserUnavailable
}

func (p *browserPool) newInstance() (*browserInstance, error) {
	ctx, cancel, err := p.start(p.opts)
	if err != nil {
		return nil, err
	}
	return &browserInstance{
		ctx:      ctx,
		cancel:   cancel,
		inUse:    true,
		healthy:  true,
		lastUsed: time.Now(),
	}, nil
}

// release returns an instance to the pool
func (p *browserPool) release(inst *browserInstance) {
	if inst == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	inst.inUse = false
	inst.lastUsed = time.Now()
}

// markFailed counts an error against an instance
func (p *browserPool) markFailed(inst *browserInstance) {
	if inst == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	inst.errorCount++
	if inst.errorCount >= maxInstanceErrors {
		inst.healthy = false
	}
}

// health reports idle and started instances
func (p *browserPool) health() (available, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	total = len(p.instances)
	for _, inst := range p.instances {
		if !inst.inUse {
			available++
		}
	}
	return
}

// close shuts down every instance
func (p *browserPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inst := range p.instances {
		if inst.cancel != nil {
			inst.cancel()
		}
	}
	p.instances = nil
}
