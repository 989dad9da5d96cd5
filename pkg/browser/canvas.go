// Package browser renders the node canvas in a headless Chromium driven by rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/nextlevelbuilder/goclaw-node/internal/node"
)

const blankPage = "about:blank"

// evalFunc runs arbitrary script text (statements or an expression) and
// returns the completion value. Promises are awaited by rod.
const evalFunc = `(src) => (0, eval)(src)`

// ErrStopped is returned after Stop.
var ErrStopped = errors.New("canvas browser stopped")

// Options configures the browser launch.
type Options struct {
	BinPath   string // empty: rod downloads or finds a browser
	Headless  bool
	NoSandbox bool
}

// Canvas implements node.Canvas on a single browser tab. The browser is
// launched lazily on first use.
type Canvas struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	stopped  bool
}

func NewCanvas(opts Options) *Canvas {
	return &Canvas{opts: opts}
}

func (c *Canvas) ensurePage() (*rod.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil, ErrStopped
	}
	if c.page != nil {
		return c.page, nil
	}

	l := launcher.New().Headless(c.opts.Headless).NoSandbox(c.opts.NoSandbox)
	if c.opts.BinPath != "" {
		l = l.Bin(c.opts.BinPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	p, err := b.Page(proto.TargetCreateTarget{URL: blankPage})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open canvas page: %w", err)
	}
	c.launcher, c.browser, c.page = l, b, p
	slog.Info("canvas: browser started", "headless", c.opts.Headless)
	return p, nil
}

// Navigate loads url; an empty url shows the blank default page.
func (c *Canvas) Navigate(ctx context.Context, url string) error {
	p, err := c.ensurePage()
	if err != nil {
		return err
	}
	if url == "" {
		url = blankPage
	}
	p = p.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return p.WaitLoad()
}

// Show navigates to url unless the canvas already displays it.
func (c *Canvas) Show(ctx context.Context, url string) error {
	if cur, err := c.CurrentURL(); err == nil && cur == url {
		return nil
	}
	return c.Navigate(ctx, url)
}

func (c *Canvas) CurrentURL() (string, error) {
	p, err := c.ensurePage()
	if err != nil {
		return "", err
	}
	info, err := p.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

// Eval runs js in the page. String results are returned as-is, undefined
// and null as "", anything else as JSON.
func (c *Canvas) Eval(ctx context.Context, js string) (string, error) {
	p, err := c.ensurePage()
	if err != nil {
		return "", err
	}
	obj, err := p.Context(ctx).Eval(evalFunc, js)
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	switch {
	case obj.Type == proto.RuntimeRemoteObjectTypeUndefined, obj.Value.Nil():
		return "", nil
	case obj.Type == proto.RuntimeRemoteObjectTypeString:
		return obj.Value.Str(), nil
	default:
		return obj.Value.JSON("", ""), nil
	}
}

// Snapshot captures the viewport and encodes it per p.
func (c *Canvas) Snapshot(ctx context.Context, p node.SnapshotParams) (string, error) {
	page, err := c.ensurePage()
	if err != nil {
		return "", err
	}
	png, err := page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	return EncodeSnapshot(png, p)
}

// Stop closes the browser. Later calls fail with ErrStopped.
func (c *Canvas) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.launcher.Kill()
	c.launcher, c.browser, c.page = nil, nil, nil
	return err
}
