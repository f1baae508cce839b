package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iougemini/kmscheck/internal/endpoint"
)

func keys(eps []endpoint.Endpoint) []string {
	out := make([]string, 0, len(eps))
	for _, ep := range eps {
		out = append(out, ep.String())
	}
	return out
}

func TestExtract_LabelForm(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"with port", "use kms: example-kms.test:1689 please", "example-kms.test:1689"},
		{"without port", "kms: kms.abc.com", "kms.abc.com:1688"},
		{"no space after colon", "kms:kms.abc.com:1688", "kms.abc.com:1688"},
		{"full-width colon", "kms：kms.abc.com", "kms.abc.com:1688"},
		{"uppercase label", "KMS: kms.abc.com:1689", "kms.abc.com:1689"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Contains(t, keys(got), tt.want)
		})
	}
}

func TestExtract_DomainAndIPv4Tokens(t *testing.T) {
	got := keys(Extract("try kms.abc.com:1688 or 140.246.142.164 or xykz.f3322.org today"))
	assert.Contains(t, got, "kms.abc.com:1688")
	assert.Contains(t, got, "140.246.142.164:1688", "IPv4 literal without port gets the default")
	assert.Contains(t, got, "xykz.f3322.org:1688")
}

func TestExtract_ServerKeywordForm(t *testing.T) {
	for _, text := range []string{
		"server kms.abc.com works",
		"服务器 kms.abc.com 可用",
		"服务器：kms.abc.com",
	} {
		got := keys(Extract(text))
		assert.Contains(t, got, "kms.abc.com:1688", "text: %s", text)
	}
}

func TestExtract_Dedup(t *testing.T) {
	got := Extract("kms: kms.abc.com:1688 and again kms.abc.com:1688 and KMS.ABC.COM:1688")
	require.Len(t, got, 1)
	assert.Equal(t, "kms.abc.com:1688", got[0].String())
}

func TestExtract_Denylist(t *testing.T) {
	text := `see https://github.com/foo/bar raw.githubusercontent.com
	localhost 127.0.0.1 0.0.0.0 app.min.js style.css page.html logo.png
	docs at example.com and kms: kms.abc.com:1688`
	got := keys(Extract(text))

	assert.Contains(t, got, "kms.abc.com:1688")
	for _, denied := range []string{
		"github.com", "raw.githubusercontent.com", "localhost",
		"127.0.0.1", "0.0.0.0", "app.min.js", "style.css", "page.html",
		"logo.png", "example.com",
	} {
		for _, k := range got {
			assert.False(t, strings.HasPrefix(k, denied+":"), "denylisted host %s extracted", denied)
		}
	}
}

func TestExtract_EmptyAndNoMatchFallsBack(t *testing.T) {
	want := keys(Fallback())
	require.Len(t, want, 13)

	for _, text := range []string{"", "nothing interesting here", "just words no hosts"} {
		got := keys(Extract(text))
		assert.ElementsMatch(t, want, got, "text: %q", text)
	}
}

func TestExtract_InvalidPortsSkipped(t *testing.T) {
	got := keys(Extract("kms: kms.abc.com:1688 broken kms.bad.test:99999"))
	assert.Contains(t, got, "kms.abc.com:1688")
	for _, k := range got {
		assert.NotContains(t, k, "99999")
	}
}

func TestExtract_VersionStringsIgnored(t *testing.T) {
	got := keys(Extract("upgrade to v1.2.3 then kms: kms.abc.com"))
	assert.Contains(t, got, "kms.abc.com:1688")
	assert.NotContains(t, got, "1.2.3:1688")
}

// Re-extracting a rendering of already-extracted endpoints must yield the
// same set back.
func TestExtract_Idempotent(t *testing.T) {
	first := Extract("kms: kms.abc.com:1688, backup 140.246.142.164:1689 and xykz.f3322.org")
	rendered := strings.Join(keys(first), " ")
	second := Extract(rendered)
	assert.ElementsMatch(t, keys(first), keys(second))
}

func TestFallback_MatchesDocumentedList(t *testing.T) {
	want := []string{
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
	assert.Equal(t, want, keys(Fallback()))
}
