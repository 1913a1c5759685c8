package browser

import "strings"

// ParseCookieHeader turns a raw Cookie header ("a=1; b=2") into cookies
// scoped to domain and the root path. Each pair is split on its first '=',
// so values may contain '='. Pairs without '=' or with an empty name are
// dropped.
func ParseCookieHeader(header, domain string) []Cookie {
	var cookies []Cookie
	for _, pair := range strings.Split(header, ";") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			continue
		}
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		cookies = append(cookies, Cookie{
			Name:   name,
			Value:  strings.TrimSpace(kv[1]),
			Domain: domain,
			Path:   "/",
		})
	}
	return cookies
}
