// Package netpool supplies the HTTP clients the account pipelines run
// on: either one shared local client, or a fixed pool of proxy-bound
// clients assigned round-robin. Clients carry transport identity only;
// cookie jars belong to the per-account session and are attached by
// the caller.
package netpool

import (
	"net/http"
	"time"
)

const requestTimeout = 60 * time.Second

// LocalProvider serves every request from the machine's own address.
type LocalProvider struct {
	client *http.Client
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (p *LocalProvider) AvailableCount() int { return 1 }

func (p *LocalProvider) Provide() *http.Client { return p.client }
