package publish

import (
	"context"

	"github.com/iougemini/kmscheck/internal/endpoint"
)

// DefaultTTL is applied to published records unless overridden.
const DefaultTTL = 120

// Record is the DNS record to publish. Proxying is always off: clients
// connect to the KMS port directly, not through an HTTP proxy layer.
type Record struct {
	Name    string
	Type    string
	Content string
	TTL     int
}

// RecordFor maps a selected host onto the record to publish: dotted-quad
// hosts become A records, everything else a CNAME.
func RecordFor(name, host string, ttl int) Record {
	typ := "CNAME"
	if endpoint.IsIPv4(host) {
		typ = "A"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Record{Name: name, Type: typ, Content: host, TTL: ttl}
}

// Publisher upserts a DNS record and returns the provider's record ID.
type Publisher interface {
	Upsert(ctx context.Context, rec Record) (string, error)
}
