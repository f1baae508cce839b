package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the standard KMS activation port, assumed whenever a
// candidate is written without an explicit port.
const DefaultPort = 1688

// Endpoint is a single host:port candidate. Host is stored lowercased so
// that String() is a stable dedup key.
type Endpoint struct {
	Host string
	Port int
}

// New validates and normalizes a host/port pair.
func New(host string, port int) (Endpoint, error) {
	host = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(host, ".")))
	if host == "" {
		return Endpoint{}, fmt.Errorf("empty host")
	}
	if port < 1 || port > 65535 {
		return Endpoint{}, fmt.Errorf("port %d out of range", port)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// Parse accepts "host" or "host:port" and applies DefaultPort when the
// port is omitted.
func Parse(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Endpoint{}, fmt.Errorf("empty endpoint")
	}
	host := s
	port := DefaultPort
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		p, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid port in %q: %w", s, err)
		}
		host = s[:i]
		port = p
	}
	return New(host, port)
}

// String renders the normalized host:port form used as the dedup key.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Addr is the dial target, identical to String for host:port endpoints.
func (e Endpoint) Addr() string {
	return e.String()
}

// IsIPv4 reports whether the host is a dotted-quad IPv4 literal.
func (e Endpoint) IsIPv4() bool {
	return IsIPv4(e.Host)
}

// IsIPv4 reports whether s is a strict dotted-quad IPv4 literal with all
// four octets in range.
func IsIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return false
			}
		}
		if n, _ := strconv.Atoi(p); n > 255 {
			return false
		}
	}
	return true
}

// IsDomain reports whether s looks like a DNS name: at least one embedded
// dot and every label made of letters, digits, or hyphens, not starting or
// ending with a hyphen.
func IsDomain(s string) bool {
	if len(s) == 0 || len(s) > 253 || !strings.Contains(s, ".") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '-':
			default:
				return false
			}
		}
	}
	return true
}

// Set is an insertion-ordered set of endpoints keyed by the normalized
// host:port string. Order matters downstream: probing and selection follow
// first-seen order.
type Set struct {
	seen map[string]struct{}
	list []Endpoint
}

func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add inserts e unless an equal endpoint is already present. Returns true
// when the endpoint was added.
func (s *Set) Add(e Endpoint) bool {
	key := e.String()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.list = append(s.list, e)
	return true
}

func (s *Set) Contains(e Endpoint) bool {
	_, ok := s.seen[e.String()]
	return ok
}

func (s *Set) Len() int {
	return len(s.list)
}

// List returns the endpoints in insertion order. The returned slice is a
// copy; mutating it does not affect the set.
func (s *Set) List() []Endpoint {
	out := make([]Endpoint, len(s.list))
	copy(out, s.list)
	return out
}
