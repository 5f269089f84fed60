package kickauth

import "strings"

// DefaultOAuthBaseURL is the origin of Kick's OAuth server, which hosts the authorize,
// token and revoke endpoints
const DefaultOAuthBaseURL = "https://id.kick.com"

// DefaultAPIBaseURL is the root of the Kick REST API
const DefaultAPIBaseURL = "https://kick.com/api"

// Scopes declares all of the OAuth scopes that must be granted by the user in order for
// our app to read their profile and channel details
var Scopes = RequiredScopes{
	"user:read",
	"channel:read",
}

// RequiredScopes is a set of OAuth scopes that we ask the user to grant when they log in
type RequiredScopes []string

// String formats the scopes as the space-delimited list expected in the 'scope' param of
// an authorization request
func (s RequiredScopes) String() string {
	return strings.Join(s, " ")
}

// Missing returns every required scope that does not appear in the given
// space-delimited list of granted scopes, in declaration order
func (s RequiredScopes) Missing(granted string) []string {
	grantedScopes := strings.Fields(granted)
	missing := make([]string, 0)
	for _, desiredScope := range s {
		wasGranted := false
		for _, scope := range grantedScopes {
			if scope == desiredScope {
				wasGranted = true
				break
			}
		}
		if !wasGranted {
			missing = append(missing, desiredScope)
		}
	}
	return missing
}

// MaskToken truncates a token so that it can be shown to the user or written to logs
// without disclosing a usable credential
func MaskToken(token string) string {
	if len(token) > 10 {
		token = token[:10]
	}
	return token + "..."
}
