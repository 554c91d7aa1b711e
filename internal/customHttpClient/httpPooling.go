package customHttpClient

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/codex/internal/config"
)

var (
	once         sync.Once
	pooledClient *http.Client
)

// GetPooledClient returns the process-wide client every model provider shares,
// so embedding and generation calls reuse warm connections.
func GetPooledClient() *http.Client {
	once.Do(func() {
		transport := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        config.MaxIdleConns,
			MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
			IdleConnTimeout:     config.IdleConnTimeout,
			TLSHandshakeTimeout: 10 * time.Second,
		}
		//no client timeout, every call carries its own context deadline
		pooledClient = &http.Client{Transport: transport}
	})
	return pooledClient
}
