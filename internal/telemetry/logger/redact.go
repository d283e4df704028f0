package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Key patterns whose values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"api_key",
	"credential",
	"authorization",
	"bearer",
}

// Query parameters commonly used by RPC providers to carry API keys.
var sensitiveQueryParams = []string{
	"apikey",
	"api_key",
	"key",
	"token",
	"access_token",
}

// minKeySegment is the length from which an alphanumeric URL path segment
// is treated as an embedded API key (e.g. /v3/<project-id>).
const minKeySegment = 24

const redactedValue = "***REDACTED***"

// redactSensitive redacts a slog attribute: sensitive keys are fully
// redacted and URL values have their credentials masked.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if strings.Contains(s, "://") {
			return slog.String(a.Key, RedactURL(s))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactURL masks credentials in an endpoint URL: the userinfo password,
// API-key query parameters and long key-like path segments. Values that
// do not parse as absolute URLs are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
		} else {
			u.User = url.User("****")
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if isSensitiveParam(name) {
				q.Set(name, "****")
			}
		}
		u.RawQuery = q.Encode()
	}

	if u.Path != "" {
		segs := strings.Split(u.Path, "/")
		for i, seg := range segs {
			if looksLikeKey(seg) {
				segs[i] = maskValue(seg)
			}
		}
		u.Path = strings.Join(segs, "/")
		u.RawPath = ""
	}

	return u.String()
}

// maskValue keeps the first and last three characters of value.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

func looksLikeKey(seg string) bool {
	if len(seg) < minKeySegment {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func isSensitiveParam(name string) bool {
	name = strings.ToLower(name)
	for _, p := range sensitiveQueryParams {
		if name == p {
			return true
		}
	}
	return false
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
