package collect

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dreamerjackson/statscraper/proxy"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultUserAgent identifies the scraper to the sites it visits.
const DefaultUserAgent = "statscraper/1.0 (+https://github.com/dreamerjackson/statscraper)"

// 单个页面请求
type Request struct {
	URL string
	// Selector is the element a rendered page must contain before it is read.
	// Static fetchers ignore it.
	Selector string
}

type Fetcher interface {
	Get(ctx context.Context, req *Request) ([]byte, error)
}

// BrowserFetch fetches static pages over plain HTTP with a fixed identifying header.
type BrowserFetch struct {
	Timeout   time.Duration
	UserAgent string
	Proxy     proxy.Func
	Logger    *zap.Logger
}

func (b BrowserFetch) Get(ctx context.Context, request *Request) ([]byte, error) {
	client := &http.Client{
		Timeout: b.Timeout,
	}

	if b.Proxy != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = b.Proxy
		client.Transport = transport
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("get url failed:%w", err)
	}

	ua := b.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error status code:%d url:%s", resp.StatusCode, request.URL)
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := DeterminEncoding(bodyReader, b.logger())
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())

	return io.ReadAll(utf8Reader)
}

func (b BrowserFetch) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.L()
	}
	return b.Logger
}

// DeterminEncoding sniffs the charset from the first kilobyte of the body.
func DeterminEncoding(r *bufio.Reader, logger *zap.Logger) encoding.Encoding {
	bytes, err := r.Peek(1024)

	if err != nil && err != io.EOF {
		logger.Error("peek body failed", zap.Error(err))

		return unicode.UTF8
	}

	e, _, _ := charset.DetermineEncoding(bytes, "")

	return e
}
