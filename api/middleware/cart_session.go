package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quotecart/pkg/logger"
)

// CartSessionHeader lets non-browser clients carry their cart session
// explicitly instead of relying on the cookie.
const CartSessionHeader = "X-Cart-Session"

type CartSessionOptions struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// CartSession resolves the caller's cart session from the header or cookie,
// minting a new one when neither carries a valid id. The id is echoed back
// on both channels so the browser cookie slides with activity.
func CartSession(opts CartSessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "quote_cart_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromRequest(r, opts.CookieName)
			if session == "" {
				session = uuid.NewString()
			}

			cookie := &http.Cookie{
				Name:     opts.CookieName,
				Value:    session,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.MaxAge > 0 {
				cookie.MaxAge = int(opts.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)
			w.Header().Set(CartSessionHeader, session)

			ctx := WithCartSession(r.Context(), session)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request, cookieName string) string {
	if id := normalizeSession(r.Header.Get(CartSessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return normalizeSession(c.Value)
	}
	return ""
}

func normalizeSession(raw string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || parsed == uuid.Nil {
		return ""
	}
	return parsed.String()
}
