// Package urlutil converts between the single address field users type
// ("pi.hole", "192.168.0.1:8080", "https://host:8443") and the structured
// {scheme, host, port} triple the API stores.
package urlutil

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

type ParsedURL struct {
	Scheme string
	Host   string
	Port   int
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// Parse turns a raw address into {scheme, host, port}, assuming http and the
// scheme-default port when omitted.
func Parse(raw string) (ParsedURL, error) {
	input := strings.TrimSpace(raw)
	if !schemeRe.MatchString(input) {
		input = "http://" + input
	}

	u, err := url.Parse(input)
	if err != nil || u.Hostname() == "" {
		return ParsedURL{}, fmt.Errorf(`invalid address %q, expected something like "pi.hole", "192.168.0.1:8080" or "https://host:443"`, raw)
	}

	scheme := "http"
	if strings.EqualFold(u.Scheme, "https") {
		scheme = "https"
	}

	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return ParsedURL{}, fmt.Errorf("port must be between 1 and 65535")
		}
	}

	return ParsedURL{Scheme: scheme, Host: u.Hostname(), Port: port}, nil
}

// Format renders the triple compactly, eliding scheme-default ports:
// http on 80 is the bare host, https on 443 is "https://host", everything
// else carries an explicit port.
func Format(p ParsedURL) string {
	if p.Port == defaultPort(p.Scheme) {
		if p.Scheme == "http" {
			return p.Host
		}
		return "https://" + p.Host
	}
	return fmt.Sprintf("%s://%s:%d", p.Scheme, p.Host, p.Port)
}
