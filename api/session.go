package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const minPasswordLength = 6

// The auth pages are simulated: nothing is checked against stored accounts.
// They validate the form, wait AuthDelay and hand back a display-name token.

func login(auth *Auth, opts Options, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeStrict(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Page: PageLogin})
		}
		email := strings.TrimSpace(req.Email)
		if email == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "email and password are required", Page: PageLogin})
		}
		if !validEmail(email) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid email", Page: PageLogin})
		}
		if err := simulateDelay(c.Request().Context(), opts.AuthDelay); err != nil {
			return err
		}
		return issueSession(c, auth, email, nameFromEmail(email), http.StatusOK, logger)
	}
}

func register(auth *Auth, opts Options, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeStrict(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Page: PageRegister})
		}
		name := strings.TrimSpace(req.Name)
		email := strings.TrimSpace(req.Email)
		switch {
		case name == "" || email == "" || req.Password == "" || req.ConfirmPassword == "":
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "all fields are required", Page: PageRegister})
		case !validEmail(email):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid email", Page: PageRegister})
		case req.Password != req.ConfirmPassword:
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "passwords do not match", Page: PageRegister})
		case utf8.RuneCountInString(req.Password) < minPasswordLength:
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "password must be at least 6 characters", Page: PageRegister})
		}
		if err := simulateDelay(c.Request().Context(), opts.AuthDelay); err != nil {
			return err
		}
		return issueSession(c, auth, email, name, http.StatusCreated, logger)
	}
}

func forgotPassword(opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req forgotPasswordRequest
		if err := decodeStrict(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Page: PageForgotPassword})
		}
		email := strings.TrimSpace(req.Email)
		if email == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "email is required", Page: PageForgotPassword})
		}
		if !validEmail(email) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid email", Page: PageForgotPassword})
		}
		if err := simulateDelay(c.Request().Context(), opts.AuthDelay); err != nil {
			return err
		}
		return c.JSON(http.StatusAccepted, forgotPasswordResponse{
			Message:  "if the address is registered, a reset link is on its way",
			Redirect: PageLogin,
		})
	}
}

func issueSession(c echo.Context, auth *Auth, email, name string, status int, logger *log.Logger) error {
	token, err := auth.Issue(email, name)
	if err != nil {
		logger.WithError(err).Error("sign session token")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to issue token"})
	}
	return c.JSON(status, authResponse{Token: token, Name: name, Redirect: PageHome})
}

// simulateDelay waits d unless the request goes away first.
func simulateDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled").SetInternal(ctx.Err())
	}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// nameFromEmail turns "maria.silva@x" into "Maria.silva".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToUpper(r)) + local[size:]
}
