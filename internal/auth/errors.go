package auth

import (
	"fmt"
	"net/http"
)

// Kind classifies why a request was not authorized.
type Kind int

const (
	KindHeaderMissing Kind = iota + 1
	KindMalformedHeader
	KindTokenExpired
	KindInvalidClaims
	KindUnknownSigningKey
	KindPermissionDenied
	KindTokenInvalid
)

func (k Kind) String() string {
	switch k {
	case KindHeaderMissing:
		return "header_missing"
	case KindMalformedHeader:
		return "malformed_header"
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidClaims:
		return "invalid_claims"
	case KindUnknownSigningKey:
		return "unknown_signing_key"
	case KindPermissionDenied:
		return "permission_denied"
	case KindTokenInvalid:
		return "token_invalid"
	default:
		return "unknown"
	}
}

// Machine-readable codes returned to clients.
const (
	CodeHeaderMissing = "authorization_header_missing"
	CodeInvalidHeader = "invalid_header"
	CodeTokenExpired  = "token_expired"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
)

// Error is an authorization failure. Every kind is reported as 401.
type Error struct {
	Kind        Kind
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode is the HTTP status for the failure.
func (e *Error) StatusCode() int {
	return http.StatusUnauthorized
}

func newError(kind Kind, code, description string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Description: description, Err: cause}
}

func errHeaderMissing() *Error {
	return newError(KindHeaderMissing, CodeHeaderMissing, "Authorization header is expected.", nil)
}

func errMalformedHeader(description string) *Error {
	return newError(KindMalformedHeader, CodeInvalidHeader, description, nil)
}

func errTokenExpired(cause error) *Error {
	return newError(KindTokenExpired, CodeTokenExpired, "Token expired.", cause)
}

func errInvalidClaims(cause error) *Error {
	return newError(KindInvalidClaims, CodeInvalidClaims, "Incorrect claims. Please, check the audience and issuer.", cause)
}

func errUnknownSigningKey(description string, cause error) *Error {
	return newError(KindUnknownSigningKey, CodeInvalidHeader, description, cause)
}

func errPermissionsMissing() *Error {
	return newError(KindPermissionDenied, CodeInvalidClaims, "Permissions not included in JWT.", nil)
}

func errPermissionNotFound(permission string) *Error {
	return newError(KindPermissionDenied, CodeUnauthorized, "Permission not found.", fmt.Errorf("missing %q", permission))
}

func errTokenInvalid(cause error) *Error {
	return newError(KindTokenInvalid, CodeInvalidHeader, "Unable to parse authentication token.", cause)
}
