package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/docsync/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var (
	once   sync.Once
	client *http.Client
)

// GetClient returns the pooled client shared by the crawler, the model
// providers and the Chroma store.
func GetClient() *http.Client {
	once.Do(func() {
		client = &http.Client{
			Transport: customTransport,
			Timeout:   config.HttpClientTimeout,
		}
	})
	return client
}
