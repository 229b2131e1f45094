package basic

import "strings"

// Built-in scope constants for the Basic identity provider.
const (
	ScopeProfile = "profile" // access to user profile information
	ScopeRead    = "read"    // read access to project data
	ScopeWrite   = "write"   // write access to project data
)

// DefaultScopes returns the scope set requested when none is configured.
func DefaultScopes() []string {
	return []string{ScopeProfile, ScopeRead, ScopeWrite}
}

// ParseScopes parses a space-separated scope string into a slice,
// dropping duplicates.
func ParseScopes(scopeString string) []string {
	if scopeString == "" {
		return nil
	}
	seen := make(map[string]bool)
	var result []string
	for _, s := range strings.Fields(scopeString) {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

// JoinScopes joins a slice of scopes into a space-separated string.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
