package ports

import "net/http"

// ClientProvider hands out HTTP clients bound to distinct network
// identities. AvailableCount caps how many account pipelines may run
// concurrently: more workers than identities would bleed rate limits
// across accounts.
type ClientProvider interface {
	AvailableCount() int
	Provide() *http.Client
}
