package utils

import (
	"net/url"
	"strings"
)

// -----------------------------------------------------------------------------

// sensitiveParams lists query parameter names whose values must never appear
// in log output.
var sensitiveParams = []string{"apikey", "api_key", "token", "secret", "key"}

// -----------------------------------------------------------------------------

// MaskAPIKey redacts credentials embedded in an endpoint URI (userinfo and
// well-known query parameters) so the endpoint can be logged safely.
// Unparseable input is returned as-is.
func MaskAPIKey(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}

	if u.User != nil {
		u.User = url.User("***")
	}

	q := u.Query()
	changed := false
	for name := range q {
		lower := strings.ToLower(name)
		for _, sensitive := range sensitiveParams {
			if lower == sensitive {
				q.Set(name, "***")
				changed = true
				break
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}

	return u.String()
}
