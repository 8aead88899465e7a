package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenIssuer = "study-planner"

// Auth issues and reads the display-name tokens handed out by the simulated
// login and register pages. They identify who to greet, nothing more.
type Auth struct {
	Secret []byte
	TTL    time.Duration

	parser *jwt.Parser
	now    func() time.Time
}

// NewAuth creates an HS256 token issuer.
func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{
		Secret: []byte(secret),
		TTL:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		now:    time.Now,
	}
}

// Issue signs a token carrying the user's email and display name.
func (a *Auth) Issue(email, name string) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":  email,
		"name": name,
		"iss":  tokenIssuer,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(a.TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

// NameFromAuthHeader extracts the display name from the Authorization header.
func (a *Auth) NameFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	token, err := bearerTokenFromString(h)
	if err != nil {
		return "", err
	}
	return a.NameFromBearer(token)
}

// NameFromBearer validates a raw bearer token and returns its name claim.
func (a *Auth) NameFromBearer(token string) (string, error) {
	if token == "" {
		return "", errBadAuthorization
	}
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	now := a.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return "", errors.New("invalid issuer")
	}
	name, _ := claims["name"].(string)
	if name == "" {
		return "", errors.New("missing name")
	}
	return name, nil
}
