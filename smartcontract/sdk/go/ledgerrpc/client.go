// Package ledgerrpc builds Solana RPC clients for the brick SDK and its
// binaries: gzip-aware HTTP transport and retries on transient transport and
// provider busy errors.
package ledgerrpc

import (
	"net"
	"net/http"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/klauspost/compress/gzhttp"
)

const (
	defaultMaxIdleConnsPerHost = 9
	defaultTimeout             = 5 * time.Minute
	defaultKeepAlive           = 180 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
)

// New creates a Solana RPC client for endpoint that retries transient
// failures according to opt. A nil opt uses the defaults.
func New(endpoint string, opt *RetryOptions) *solanarpc.Client {
	return NewWithHeaders(endpoint, nil, opt)
}

// NewWithHeaders is New with custom headers sent on every request.
func NewWithHeaders(endpoint string, headers map[string]string, opt *RetryOptions) *solanarpc.Client {
	inner := jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient:    newHTTP(),
		CustomHeaders: headers,
	})
	return solanarpc.NewWithCustomRPCClient(WithRetry(inner, opt))
}

func newHTTP() *http.Client {
	return &http.Client{
		Timeout:   defaultTimeout,
		Transport: gzhttp.Transport(newHTTPTransport()),
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		IdleConnTimeout:     defaultTimeout,
		MaxConnsPerHost:     defaultMaxIdleConnsPerHost,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		Proxy:               http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultTimeout,
			KeepAlive: defaultKeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
	}
}
