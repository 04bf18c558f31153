package llm

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// proxyFunc layers configured proxies over HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
// Empty settings keep the environment's value.
func proxyFunc(c Config) func(*http.Request) (*url.URL, error) {
	pc := httpproxy.FromEnvironment()
	if c.HTTPProxy != "" {
		pc.HTTPProxy = c.HTTPProxy
	}
	if c.HTTPSProxy != "" {
		pc.HTTPSProxy = c.HTTPSProxy
	}
	if c.NoProxy != "" {
		pc.NoProxy = c.NoProxy
	}

	fn := pc.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}
