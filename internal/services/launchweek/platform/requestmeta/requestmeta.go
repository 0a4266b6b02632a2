// Package requestmeta derives request origin metadata for cookies, CSRF
// checks and absolute share links.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// TrustForwardedProto must be enabled explicitly before X-Forwarded-Proto is
// considered, since clients can set it freely.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// Origin is a normalized scheme, host and port triple.
type Origin struct {
	Scheme string
	Host   string
	Port   string
}

// String renders the origin as scheme://host[:port], omitting default ports.
func (o Origin) String() string {
	if o.Host == "" {
		return ""
	}
	host := o.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if o.Port != "" && o.Port != defaultPort(o.Scheme) {
		host += ":" + o.Port
	}
	return o.Scheme + "://" + host
}

// Same reports whether both origins match on scheme, host and port.
func (o Origin) Same(other Origin) bool {
	if o.Host == "" || other.Host == "" {
		return false
	}
	return o.Scheme == other.Scheme && o.Host == other.Host && o.Port == other.Port
}

// ParseOrigin parses an Origin or Referer header value.
func ParseOrigin(raw string) (Origin, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Origin{}, false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return Origin{}, false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return Origin{}, false
	}
	port := parsed.Port()
	if port == "" {
		port = defaultPort(scheme)
	}
	return Origin{Scheme: scheme, Host: host, Port: port}, true
}

// RequestOrigin returns the origin the request was addressed to.
func RequestOrigin(r *http.Request, policy SchemePolicy) Origin {
	if r == nil {
		return Origin{}
	}
	scheme := Scheme(r, policy)
	host, port := splitHost(r.Host)
	if host == "" && r.URL != nil {
		host, port = splitHost(r.URL.Host)
	}
	if port == "" {
		port = defaultPort(scheme)
	}
	return Origin{Scheme: scheme, Host: host, Port: port}
}

// Scheme resolves the request scheme as "http" or "https".
func Scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		if forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.URL != nil {
		if scheme := strings.ToLower(r.URL.Scheme); scheme == "http" || scheme == "https" {
			return scheme
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// IsHTTPS reports whether the request should be treated as HTTPS.
func IsHTTPS(r *http.Request, policy SchemePolicy) bool {
	return Scheme(r, policy) == "https"
}

// HasSameOriginProof reports whether Origin, or failing that Referer,
// matches the request origin.
func HasSameOriginProof(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	target := RequestOrigin(r, policy)
	for _, header := range []string{"Origin", "Referer"} {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" {
			continue
		}
		source, ok := ParseOrigin(value)
		return ok && source.Same(target)
	}
	return false
}

// BaseURL returns publicURL when set, or the request origin.
func BaseURL(r *http.Request, publicURL string, policy SchemePolicy) string {
	if trimmed := strings.TrimRight(strings.TrimSpace(publicURL), "/"); trimmed != "" {
		return trimmed
	}
	return RequestOrigin(r, policy).String()
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}

func splitHost(raw string) (string, string) {
	parsed, err := url.Parse("//" + strings.TrimSpace(raw))
	if err != nil {
		return "", ""
	}
	return strings.ToLower(parsed.Hostname()), parsed.Port()
}
