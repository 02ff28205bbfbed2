// Package settings declares the metadata table for site-configuration keys:
// which keys carry secrets that must never leave the server in plaintext,
// and which keys belong to a group that is persisted as a unit.
//
// The rules live in one declarative table instead of inline string checks so
// that adding a key, a secret, or a group is a data change, not a logic
// change.
package settings

import "strings"

// MaskToken is the literal value returned in place of any sensitive
// config value.
const MaskToken = "••••••••"

// GroupAISummary is the group name for the AI summary provider settings.
const GroupAISummary = "ai_summary"

// Rule describes how one key pattern is treated. Pattern is either an exact
// dotted key or a "*." suffix match ("*.api_key" matches any key whose last
// segment is api_key).
type Rule struct {
	Pattern   string
	Sensitive bool
	Group     string
}

// rules is the single source of truth for key handling. Order matters only
// in that the first matching rule wins.
var rules = []Rule{
	// AI summary provider settings persist as a group; the key is a secret.
	{Pattern: "ai_summary.enabled", Group: GroupAISummary},
	{Pattern: "ai_summary.provider", Group: GroupAISummary},
	{Pattern: "ai_summary.model", Group: GroupAISummary},
	{Pattern: "ai_summary.api_url", Group: GroupAISummary},
	{Pattern: "ai_summary.api_key", Group: GroupAISummary, Sensitive: true},

	// Catch-all secret suffixes for keys added without an explicit rule.
	{Pattern: "*.api_key", Sensitive: true},
	{Pattern: "*.secret_key", Sensitive: true},
	{Pattern: "*.token", Sensitive: true},
}

// match reports whether key satisfies pattern.
func match(pattern, key string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(key, "."+suffix)
	}
	return pattern == key
}

// lookup returns the first rule matching key, if any.
func lookup(key string) (Rule, bool) {
	for _, r := range rules {
		if match(r.Pattern, key) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsSensitive reports whether the value for key must be masked on read.
func IsSensitive(key string) bool {
	r, ok := lookup(key)
	return ok && r.Sensitive
}

// GroupFor returns the group name for key, or "" when the key is ungrouped.
func GroupFor(key string) string {
	r, ok := lookup(key)
	if !ok {
		return ""
	}
	return r.Group
}

// GroupKeys returns every exact key declared for the given group.
func GroupKeys(group string) []string {
	var out []string
	for _, r := range rules {
		if r.Group == group && !strings.HasPrefix(r.Pattern, "*.") {
			out = append(out, r.Pattern)
		}
	}
	return out
}

// Mask returns a copy of m with every sensitive value replaced by
// MaskToken. Non-sensitive entries are carried over verbatim.
func Mask(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if IsSensitive(k) {
			out[k] = MaskToken
		} else {
			out[k] = v
		}
	}
	return out
}
