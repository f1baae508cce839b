package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iougemini/kmscheck/internal/endpoint"
)

// rule is one extraction pattern. Group 1 must capture the host; group 2,
// when present, captures an explicit port. Rules run in declaration order
// and all feed the same set, so an earlier match for a key wins.
type rule struct {
	name string
	re   *regexp.Regexp
}

var rules = []rule{
	// Explicit "kms: host[:port]" label, half- or full-width colon.
	{"label", regexp.MustCompile(`(?i)kms\s*[:：]\s*([A-Za-z0-9][A-Za-z0-9.\-]*[A-Za-z0-9])(?::([0-9]{1,5}))?`)},
	// Bare dot-separated hostname token, optional port.
	{"domain", regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9\-]*(?:\.[a-z0-9][a-z0-9\-]*)+)(?::([0-9]{1,5}))?`)},
	// Dotted-quad IPv4 literal, optional port.
	{"ipv4", regexp.MustCompile(`\b((?:[0-9]{1,3}\.){3}[0-9]{1,3})(?::([0-9]{1,5}))?`)},
	// "server <host>" / "服务器 <host>" keyword-anchored form.
	{"server-keyword", regexp.MustCompile(`(?i)(?:服务器|server)\s*[:：]?\s*([a-z0-9][a-z0-9\-]*(?:\.[a-z0-9][a-z0-9\-]*)+)`)},
}

// deniedSuffixes are host suffixes that show up in issue bodies but are
// never KMS servers: code hosting, placeholder domains, and asset paths
// captured as if they were hostnames.
var deniedSuffixes = []string{
	"github.com",
	"githubusercontent.com",
	"github.io",
	"gitee.com",
	"gitlab.com",
	"example.com",
	"example.org",
	"example.net",
	".js",
	".css",
	".html",
	".htm",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".svg",
	".ico",
}

var deniedHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
}

// allowKeywords mark a host as domain-relevant even when it would not
// otherwise look interesting.
var allowKeywords = []string{"kms", "vlmcs", "activate"}

// fallback is the documented safety net: returned whenever extraction
// produces nothing, so a run always has something to probe.
var fallback = []string{
	"kms.hmg.pw:1688",
	"kms.xingez.me:1688",
	"140.246.142.164:1688",
	"kms.03k.org:1688",
	"kms.chinancce.com:1688",
	"kms.ddns.net:1688",
	"kms.ddz.red:1688",
	"kms.lotro.cc:1688",
	"kms.luody.info:1688",
	"kms.moeclub.org:1688",
	"kms8.msguides.com:1688",
	"xykz.f3322.org:1688",
	"kms.cangshui.net:1688",
}

// Fallback returns the built-in candidate list, used when the source text
// cannot be fetched or yields no candidates.
func Fallback() []endpoint.Endpoint {
	out := make([]endpoint.Endpoint, 0, len(fallback))
	for _, s := range fallback {
		ep, err := endpoint.Parse(s)
		if err != nil {
			// The table is static; a bad entry is a programming error.
			panic("extract: invalid fallback entry " + s)
		}
		out = append(out, ep)
	}
	return out
}

// Extract parses free-form text into a deduplicated, insertion-ordered
// candidate list. It never fails: malformed input degrades to fewer
// matches, and an empty result is replaced by the fallback list. Pure
// function of its input and the static tables.
func Extract(text string) []endpoint.Endpoint {
	set := endpoint.NewSet()
	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			host := m[1]
			port := endpoint.DefaultPort
			if len(m) > 2 && m[2] != "" {
				p, err := strconv.Atoi(m[2])
				if err != nil {
					continue
				}
				port = p
			}
			ep, err := endpoint.New(host, port)
			if err != nil {
				continue
			}
			if !isLikelyCandidate(ep) {
				continue
			}
			if set.Add(ep) {
				log.Debug().
					Str("rule", r.name).
					Str("endpoint", ep.String()).
					Msg("Extracted candidate")
			}
		}
	}
	if set.Len() == 0 {
		log.Debug().Int("count", len(fallback)).Msg("No candidates extracted, using fallback list")
		return Fallback()
	}
	return set.List()
}

// isLikelyCandidate filters incidental matches: denylist first, then the
// domain-keyword allowlist, then a generic looks-like-a-domain check.
func isLikelyCandidate(ep endpoint.Endpoint) bool {
	host := strings.ToLower(ep.Host)
	if _, ok := deniedHosts[host]; ok {
		return false
	}
	for _, suffix := range deniedSuffixes {
		if strings.HasSuffix(host, suffix) {
			return false
		}
	}
	if ep.IsIPv4() {
		return true
	}
	for _, kw := range allowKeywords {
		if strings.Contains(host, kw) {
			return true
		}
	}
	// Generic domain shape. Requiring a letter in the final label weeds out
	// version strings like "1.2.3" that would otherwise parse as labels.
	if !endpoint.IsDomain(host) {
		return false
	}
	tld := host[strings.LastIndexByte(host, '.')+1:]
	return strings.ContainsFunc(tld, func(r rune) bool { return r >= 'a' && r <= 'z' })
}
