package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordFor(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		ttl      int
		wantType string
		wantTTL  int
	}{
		{"domain host", "kms.abc.com", 120, "CNAME", 120},
		{"ipv4 host", "140.246.142.164", 120, "A", 120},
		{"deployment ttl", "kms.abc.com", 3600, "CNAME", 3600},
		{"zero ttl defaults", "kms.abc.com", 0, "CNAME", DefaultTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RecordFor("kms.example.net", tt.host, tt.ttl)
			assert.Equal(t, "kms.example.net", rec.Name)
			assert.Equal(t, tt.wantType, rec.Type)
			assert.Equal(t, tt.host, rec.Content)
			assert.Equal(t, tt.wantTTL, rec.TTL)
		})
	}
}
