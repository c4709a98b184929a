// Package fetcher retrieves the current text of a tracked rule page, either
// over HTTP or from the local filesystem, and extracts the rule body from
// HTML with container heuristics.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/whttp"
)

const (
	defaultTimeout = 15 * time.Second
	defaultRetries = 3
)

// Result is the extracted text of one fetch.
type Result struct {
	Locator string
	Title   string
	Text    string
}

// Fetcher returns the current text behind a locator. Failures are reported
// as *FetchFailure.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (Result, error)
}

// Config tunes the default fetcher.
type Config struct {
	Timeout time.Duration
	Retries int
	Proxy   string
	Mode    Mode
}

// HTTPFetcher fetches http(s) locators with retries and reads anything else
// from disk.
type HTTPFetcher struct {
	client *retryablehttp.Client
	mode   Mode
}

// New builds the default fetcher.
func New(cfg Config) (*HTTPFetcher, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = defaultRetries
	if cfg.Retries > 0 {
		retryClient.RetryMax = cfg.Retries
	}
	retryClient.HTTPClient.Timeout = defaultTimeout
	if cfg.Timeout > 0 {
		retryClient.HTTPClient.Timeout = cfg.Timeout
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeText
	}
	return &HTTPFetcher{client: retryClient, mode: mode}, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) (Result, error) {
	if documents.IsRemote(locator) {
		return f.fetchRemote(ctx, locator)
	}
	return f.fetchLocal(locator)
}

func (f *HTTPFetcher) fetchRemote(ctx context.Context, locator string) (Result, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: locator}, f.client)
	if err != nil {
		return Result{}, &FetchFailure{Locator: locator, Reason: "request failed", Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Result{}, &FetchFailure{Locator: locator, Reason: fmt.Sprintf("unexpected status %d", res.StatusCode)}
	}

	text := res.BodyString
	if !isPlainText(res.ContentType) {
		text, err = ExtractText(res.BodyString, f.mode)
		if err != nil {
			return Result{}, &FetchFailure{Locator: locator, Reason: "unparsable content", Err: err}
		}
	}
	return finish(Result{Locator: locator, Title: res.HTTPTitle, Text: text})
}

func (f *HTTPFetcher) fetchLocal(locator string) (Result, error) {
	path := strings.TrimPrefix(locator, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &FetchFailure{Locator: locator, Reason: "read failed", Err: err}
	}

	text := string(data)
	var title string
	if isHTMLFile(path, text) {
		if t, ok := whttp.GetHTMLTitle(text); ok {
			title = whttp.CleanTitle(t)
		}
		text, err = ExtractText(text, f.mode)
		if err != nil {
			return Result{}, &FetchFailure{Locator: locator, Reason: "unparsable content", Err: err}
		}
	}
	return finish(Result{Locator: locator, Title: title, Text: text})
}

func finish(r Result) (Result, error) {
	if strings.TrimSpace(r.Text) == "" {
		return Result{}, &FetchFailure{Locator: r.Locator, Reason: "could not locate substantial content"}
	}
	if err := Validate(r.Locator, r.Text); err != nil {
		return Result{}, err
	}
	return r, nil
}

func isPlainText(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/plain")
}

func isHTMLFile(path, content string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	case ".txt", ".md":
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(content), "<")
}
