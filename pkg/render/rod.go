package render

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"fbscraper/pkg/config"
	"fbscraper/pkg/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the headless browser
type Options struct {
	BrowserBin string
	NoSandbox  bool
	Timeout    time.Duration
	UserAgent  string
	// Cookie is a raw "a=b; c=d" string set on every rendered page
	Cookie string
	Logger logger.Logger
}

// RodRenderer renders pages in a lazily launched headless Chrome
type RodRenderer struct {
	opts Options
	log  logger.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodRenderer creates a renderer; the browser starts on first use
func NewRodRenderer(opts Options) *RodRenderer {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &RodRenderer{opts: opts, log: log.WithField("component", "render")}
}

// FromConfig returns a renderer for cfg, or nil when rendering is disabled
func FromConfig(cfg *config.Config, log logger.Logger) *RodRenderer {
	if !cfg.Render.Enabled {
		return nil
	}
	return NewRodRenderer(Options{
		BrowserBin: cfg.Render.BrowserBin,
		NoSandbox:  cfg.Render.NoSandbox,
		Timeout:    cfg.Render.Timeout,
		UserAgent:  cfg.Facebook.UserAgent,
		Cookie:     "locale=" + cfg.Facebook.Locale + "; " + cfg.Facebook.Cookie,
		Logger:     log,
	})
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	if r.opts.BrowserBin != "" {
		l = l.Bin(r.opts.BrowserBin)
	}
	if r.opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	r.log.Debug("Connected to the browser")

	r.launcher = l
	r.browser = browser
	return browser, nil
}

// Render navigates to target, waits for the network to settle and returns the DOM
func (r *RodRenderer) Render(ctx context.Context, target string) (string, error) {
	browser, err := r.connect()
	if err != nil {
		return "", err
	}

	start := time.Now()
	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	page = page.Timeout(r.opts.Timeout)

	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.opts.UserAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}
	if cookies := cookieParams(target, r.opts.Cookie); len(cookies) > 0 {
		if err := page.SetCookies(cookies); err != nil {
			return "", fmt.Errorf("set cookies: %w", err)
		}
	}

	if err := page.Navigate(target); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	page.WaitRequestIdle(500*time.Millisecond, []string{".+"}, nil, nil)()

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read DOM: %w", err)
	}

	r.log.DebugWithFields("Rendered page", map[string]interface{}{
		"url":      target,
		"duration": time.Since(start),
		"bytes":    len(html),
	})
	return html, nil
}

// Close shuts the browser down if it was started
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.launcher.Kill()
	r.browser = nil
	r.launcher = nil
	return err
}

// cookieParams turns a raw cookie string into browser cookies scoped to target
func cookieParams(target, raw string) []*proto.NetworkCookieParam {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil
	}
	origin := u.Scheme + "://" + u.Host

	var params []*proto.NetworkCookieParam
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		params = append(params, &proto.NetworkCookieParam{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
			URL:   origin,
		})
	}
	return params
}
