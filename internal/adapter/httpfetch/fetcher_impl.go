package httpfetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/proxy"
)

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Fetcher retrieves pages with a plain HTTP GET.
type Fetcher struct {
	client  *resty.Client
	proxies *proxy.Manager
}

// New creates a Fetcher. Each request gets a rotated user agent and proxy
// from pm, which may be nil.
func New(timeout time.Duration, pm *proxy.Manager) *Fetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	client.SetHeader("Accept-Language", "hr,en;q=0.8")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = pm.ProxyFunc()
	client.SetTransport(transport)

	return &Fetcher{client: client, proxies: pm}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*entity.Document, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.proxies.GetUserAgent()).
		Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode()}
	}
	return &entity.Document{
		URL:        url,
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		FetchedAt:  time.Now().UTC(),
	}, nil
}
