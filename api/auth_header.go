package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerScheme = "Bearer "

func bearerTokenFromHeader(header http.Header) (string, error) {
	return bearerTokenFromString(header.Get(echo.HeaderAuthorization))
}

// bearerTokenFromString accepts "Bearer <jwt>" with optional surrounding spaces.
// Anything that is not three dot-separated segments is rejected before parsing.
func bearerTokenFromString(raw string) (string, error) {
	raw = strings.Trim(raw, " ")
	if raw == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(raw, bearerScheme)
	if !ok || token == "" || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
