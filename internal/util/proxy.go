// Package util holds small helpers shared across the module.
package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc builds the proxy selector for the enrichment HTTP
// transport. Explicitly configured proxy URLs are parsed once up front,
// so a bad value fails every request with the same parse error instead
// of being re-parsed per call. With neither set, the standard proxy
// environment variables apply.
func NewProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	httpURL, httpErr := url.Parse(httpProxy)
	httpsURL, httpsErr := url.Parse(httpsProxy)

	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && httpsProxy != "":
			return httpsURL, httpsErr
		case httpProxy != "":
			return httpURL, httpErr
		default:
			return http.ProxyFromEnvironment(req)
		}
	}
}
