package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dreamerjackson/statscraper/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BrowserFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><table id="t"></table></body></html>`))
	}))
	defer srv.Close()

	f := BrowserFetch{Timeout: 5 * time.Second}
	body, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, string(body), `<table id="t">`)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func Test_BrowserFetchCustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	f := BrowserFetch{UserAgent: "stats-bot/2"}
	_, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "stats-bot/2", gotUA)
}

func Test_BrowserFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := BrowserFetch{}
	body, err := f.Get(context.Background(), &Request{URL: srv.URL})
	assert.Nil(t, body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func Test_BrowserFetchWithTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := BrowserFetch{Timeout: 20 * time.Millisecond}
	_, err := f.Get(context.Background(), &Request{URL: srv.URL})
	assert.Error(t, err)
}

func Test_BrowserFetchDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// "Jokinen" with a latin-1 encoded umlaut
		_, _ = w.Write([]byte("<html><head><meta charset=\"iso-8859-1\"></head><body>J\xf6kinen</body></html>"))
	}))
	defer srv.Close()

	f := BrowserFetch{}
	body, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, string(body), "Jökinen")
}

func Test_BrowserFetchWithProxy(t *testing.T) {
	var proxied bool
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = true
		_, _ = w.Write([]byte("via proxy"))
	}))
	defer proxySrv.Close()

	p, err := proxy.RoundRobinProxySwitcher(proxySrv.URL)
	require.NoError(t, err)

	f := BrowserFetch{Proxy: p, Timeout: 5 * time.Second}
	body, err := f.Get(context.Background(), &Request{URL: "http://stats.invalid/players.html"})
	require.NoError(t, err)
	assert.True(t, proxied)
	assert.Equal(t, "via proxy", string(body))
}

func TestResolveDriver(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "chromium")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	got, err := ResolveDriver(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = ResolveDriver(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrDriverNotFound)

	_, err = ResolveDriver(dir)
	assert.ErrorIs(t, err, ErrDriverNotFound)
}

func TestResolveDriverFromPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "google-chrome")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", dir)

	got, err := ResolveDriver("")
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	t.Setenv("PATH", t.TempDir())
	_, err = ResolveDriver("")
	assert.ErrorIs(t, err, ErrDriverNotFound)
}

func TestNewRenderFetchWithoutDriver(t *testing.T) {
	_, err := NewRenderFetch(WithDriverPath(filepath.Join(t.TempDir(), "nope")))
	assert.ErrorIs(t, err, ErrDriverNotFound)
}
