package auth

import "strings"

// TokenFromHeader extracts the token from an Authorization header value of
// the form "Bearer <token>". The scheme is matched case-insensitively.
func TokenFromHeader(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", errHeaderMissing()
	}

	parts := strings.Fields(value)
	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", errMalformedHeader(`Authorization header must start with "Bearer".`)
	case len(parts) == 1:
		return "", errMalformedHeader("Token not found.")
	case len(parts) > 2:
		return "", errMalformedHeader("Authorization header must be bearer token.")
	}
	return parts[1], nil
}
