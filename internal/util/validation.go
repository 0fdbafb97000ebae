package util

import (
	"fmt"
	"mime"
	"net"
	"regexp"
	"strings"
	"time"
)

// tokenRegex matches an RFC 7230 token, used for HTTP verbs.
var tokenRegex = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// ValidatePort validates a port number (0 is allowed for auto-assign).
func ValidatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got: %d", port)
	}
	return nil
}

// ValidateBindAddress validates a listen address: empty, an IP literal or a hostname.
func ValidateBindAddress(addr string) error {
	if addr == "" || net.ParseIP(addr) != nil {
		return nil
	}
	return ValidateHostname(addr)
}

// ValidateHostname validates a hostname.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	if len(hostname) > 253 {
		return fmt.Errorf("hostname too long: %d characters (max 253)", len(hostname))
	}

	for _, label := range strings.Split(hostname, ".") {
		if label == "" {
			return fmt.Errorf("hostname has empty label")
		}
		if len(label) > 63 {
			return fmt.Errorf("hostname label too long: %d characters (max 63)", len(label))
		}
		for i, c := range label {
			if !isValidHostnameChar(c, i == 0, i == len(label)-1) {
				return fmt.Errorf("invalid character in hostname: %c", c)
			}
		}
	}

	return nil
}

func isValidHostnameChar(c rune, isFirst, isLast bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-':
		return !isFirst && !isLast
	default:
		return false
	}
}

// ValidateHTTPMethod validates an HTTP verb. Verbs are case-sensitive, so
// only the token syntax is checked.
func ValidateHTTPMethod(method string) error {
	if !tokenRegex.MatchString(method) {
		return fmt.Errorf("invalid HTTP method: %q", method)
	}
	return nil
}

// ValidateRegex validates a regex pattern.
func ValidateRegex(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	return nil
}

// ValidateMediaType validates a media type such as "text/plain;charset=utf-8".
func ValidateMediaType(value string) error {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		return fmt.Errorf("invalid media type %q: %w", value, err)
	}
	if !strings.Contains(mt, "/") {
		return fmt.Errorf("media type %q has no subtype", value)
	}
	return nil
}

// ValidateDuration validates a duration is not negative.
func ValidateDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("duration cannot be negative: %v", d)
	}
	return nil
}

// ValidatePercentage validates a percentage value (0-100).
func ValidatePercentage(value float64) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("percentage must be between 0 and 100, got: %f", value)
	}
	return nil
}

// ValidateNonEmpty validates that a string is not empty.
func ValidateNonEmpty(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}
