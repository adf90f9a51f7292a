package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

type ESOptions struct {
	Addrs    []string
	Username string
	Password string
	// MaxRetries applies to 502/503/504 and timeouts. Zero means 2.
	MaxRetries int
}

// NewESClient returns nil without error when no address is configured,
// which switches search over to the store fallback.
func NewESClient(o ESOptions) (*elasticsearch.Client, error) {
	if len(o.Addrs) == 0 {
		return nil, nil
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 2
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     o.Addrs,
		Username:      o.Username,
		Password:      o.Password,
		MaxRetries:    o.MaxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 3 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 3 * time.Second}).DialContext,
		},
	})
}
