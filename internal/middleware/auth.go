package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"

	"podnplay/internal/db"
	"podnplay/internal/models"
	"podnplay/internal/nav"
)

type contextKey string

// UserContextKey is the key for the user in the context.
const UserContextKey = contextKey("user")

// SessionCookie holds the signed Telegram init data of a browser session.
const SessionCookie = "session"

var ErrNoIdentity = errors.New("no identity presented")

// UserFromContext returns the signed-in user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// Authenticator validates Telegram Mini App init data and upserts the user.
type Authenticator struct {
	botToken string
	ttl      time.Duration
	logger   *zap.Logger
	upsert   func(ctx context.Context, id int64, username string) (*models.User, error)
}

func NewAuthenticator(botToken string, ttl time.Duration, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{botToken: botToken, ttl: ttl, logger: logger, upsert: db.UpsertUser}
}

// TTL is how long a session stays valid.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Authenticate validates raw init data and returns the matching user.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, ErrNoIdentity
	}
	if err := initdata.Validate(raw, a.botToken, a.ttl); err != nil {
		return nil, fmt.Errorf("invalid init data: %w", err)
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing init data: %w", err)
	}
	if data.User.ID == 0 {
		return nil, errors.New("init data carries no user")
	}

	return a.upsert(ctx, data.User.ID, data.User.Username)
}

// rawIdentity extracts init data from the Authorization header
// ("tma <initData>") or the session cookie.
func rawIdentity(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "tma" {
			return "", errors.New("Authorization header format must be 'tma <initData>'")
		}
		return parts[1], nil
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoIdentity
}

// Session resolves the signed-in user when an identity is presented and
// stores it in the context. Anonymous requests pass through.
func (a *Authenticator) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := rawIdentity(r)
		if err != nil {
			if !errors.Is(err, ErrNoIdentity) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.Authenticate(r.Context(), raw)
		if err != nil {
			a.logger.Info("session rejected", zap.Error(err))
			ClearSession(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUser rejects anonymous requests. Page requests are sent to the
// sign-in page, everything else gets 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			if r.Method == http.MethodGet && !strings.HasPrefix(r.URL.Path, "/api/") {
				http.Redirect(w, r, nav.SignInURL, http.StatusSeeOther)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSession stores the init data in the session cookie.
func SetSession(w http.ResponseWriter, raw string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
