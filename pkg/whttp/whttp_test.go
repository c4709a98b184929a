package whttp

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
)

func TestGetHTMLTitle(t *testing.T) {
	title, ok := GetHTMLTitle("<html><head><title>\n  FINRA Rule 2010\r\n</title></head><body></body></html>")
	if !ok {
		t.Fatal("title not found")
	}
	if CleanTitle(title) != "FINRA Rule 2010" {
		t.Fatalf("unexpected title %q", CleanTitle(title))
	}
	if _, ok := GetHTMLTitle("<p>no title</p>"); ok {
		t.Fatal("expected no title")
	}
}

func TestSendHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != USER_AGENT {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<title>Rule</title><p>body</p>")
	}))
	defer srv.Close()

	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{URL: srv.URL}, client)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusOK || res.HTTPTitle != "Rule" || res.ContentType != "text/html" {
		t.Fatalf("unexpected response %+v", res)
	}
}
