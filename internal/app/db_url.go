package app

import (
	"net/url"
	"strings"
)

// normalizeDBURL tags URL-style connection strings with an application_name
// so archive sessions are identifiable in pg_stat_activity. Explicit values
// and key=value DSNs are left alone.
func normalizeDBURL(raw string, applicationName string) string {
	raw = strings.TrimSpace(raw)
	if applicationName == "" {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("application_name") != "" {
		return raw
	}
	query.Set("application_name", applicationName)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromURL reads the database name from either a postgres:// URL or a
// key=value DSN.
func dbNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return strings.Trim(parsed.Path, "/ ")
	}

	for _, token := range strings.Fields(raw) {
		if key, value, ok := strings.Cut(token, "="); ok && key == "dbname" {
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}
