package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fbscraper/pkg/config"
	errs "fbscraper/pkg/errors"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"
	"fbscraper/pkg/ratelimit"
	"fbscraper/pkg/retry"

	"github.com/go-resty/resty/v2"
)

// Response is a fetched page
type Response struct {
	Status int
	Body   []byte
	// URL is the final URL after redirects
	URL string
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// Getter is the transport contract the scraper depends on. Implementations
// return a typed error for transport failures and non-2xx statuses.
type Getter interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// Options configures a Client
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Locale         string
	// Cookie is appended after the locale cookie
	Cookie  string
	Timeout time.Duration
	// Retry defaults to retry.HTTPConfig(3, 2s)
	Retry    *retry.Config
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
	Recorder metrics.Recorder
}

// Client performs GET requests with the identity headers of a desktop browser
type Client struct {
	http     *resty.Client
	retry    *retry.Config
	limiter  ratelimit.Limiter
	logger   logger.Logger
	recorder metrics.Recorder
}

// New creates a connector client
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Locale == "" {
		opts.Locale = "en_US"
	}

	rc := resty.New().
		SetTimeout(opts.Timeout).
		SetLogger(restyLogger{log: log}).
		SetHeader("Cookie", cookieHeader(opts.Locale, opts.Cookie))
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.AcceptLanguage != "" {
		rc.SetHeader("Accept-Language", opts.AcceptLanguage)
	}

	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = retry.HTTPConfig(3, 2*time.Second, log)
	}

	return &Client{
		http:     rc,
		retry:    retryCfg,
		limiter:  opts.Limiter,
		logger:   log,
		recorder: metrics.OrNoop(opts.Recorder),
	}
}

// NewFromConfig builds a client from the loaded configuration
func NewFromConfig(cfg *config.Config, log logger.Logger, rec metrics.Recorder) *Client {
	return New(Options{
		UserAgent:      cfg.Facebook.UserAgent,
		AcceptLanguage: cfg.Facebook.AcceptLanguage,
		Locale:         cfg.Facebook.Locale,
		Cookie:         cfg.Facebook.Cookie,
		Timeout:        cfg.HTTP.Timeout,
		Retry:          retry.HTTPConfig(cfg.HTTP.MaxRetries, cfg.HTTP.RetryDelay, log),
		Limiter:        ratelimit.PerMinute(cfg.HTTP.RequestsPerMinute),
		Logger:         log,
		Recorder:       rec,
	})
}

// cookieHeader joins the locale cookie with an optional session cookie
func cookieHeader(locale, cookie string) string {
	header := "locale=" + locale + ";"
	cookie = strings.TrimSpace(cookie)
	if cookie != "" {
		header += " " + cookie
	}
	return header
}

// Get fetches url, retrying retryable failures
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (*Response, error) {
		return c.getOnce(ctx, url)
	}, c.retry)
}

func (c *Client) getOnce(ctx context.Context, url string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	res, err := c.http.R().SetContext(ctx).Get(url)
	duration := time.Since(start)

	if err != nil {
		c.recorder.ObserveFetch(0, duration)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, fmt.Sprintf("GET %s", url))
	}

	status := res.StatusCode()
	c.recorder.ObserveFetch(status, duration)
	logger.LogRequest(c.logger, http.MethodGet, url, status, duration)

	if status == http.StatusTooManyRequests {
		logger.LogRateLimit(c.logger, url, retryAfter(res))
	}
	if status < 200 || status > 299 {
		return nil, errs.FromStatus(status, url)
	}

	final := url
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		final = res.RawResponse.Request.URL.String()
	}

	return &Response{Status: status, Body: res.Body(), URL: final}, nil
}

func retryAfter(res *resty.Response) time.Duration {
	value := res.Header().Get("Retry-After")
	if value == "" {
		return 0
	}
	if d, err := time.ParseDuration(value + "s"); err == nil {
		return d
	}
	return 0
}

// restyLogger routes resty's internal messages to our logger
type restyLogger struct {
	log logger.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
