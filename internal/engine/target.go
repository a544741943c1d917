package engine

import (
	"regexp"
	"strings"
)

var (
	domainPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	ipv4Pattern   = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
)

// NormalizeTarget trims whitespace and strips a leading http:// or https://
// scheme. Validation happens separately in ValidTarget.
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if i := strings.Index(target, "://"); i >= 0 {
		target = target[i+3:]
	}
	return target
}

// ValidTarget reports whether target is a syntactically valid hostname or
// IPv4 address.
func ValidTarget(target string) bool {
	if target == "" || len(target) > 253 {
		return false
	}
	return domainPattern.MatchString(target) || ipv4Pattern.MatchString(target)
}
