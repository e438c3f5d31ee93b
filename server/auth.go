package server

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenVerifier resolves the optional bearer credential presented at
// connect time. Resolution never fails the connection: anything short
// of a validly signed token with a subject claim yields a fresh guest
// identity instead.
type TokenVerifier struct {
	secret []byte
	logger zerolog.Logger
}

// NewTokenVerifier builds a verifier for HMAC-signed tokens. An empty
// secret disables verification entirely; every caller becomes a
// guest.
func NewTokenVerifier(secret string, logger zerolog.Logger) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), logger: logger}
}

// Resolve returns the identity for a raw token and whether it is a
// generated guest id.
func (v *TokenVerifier) Resolve(raw string) (identity string, guest bool) {
	if raw == "" || len(v.secret) == 0 {
		return guestIdentity(), true
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		v.logger.Debug().Err(err).Msg("token rejected, downgrading to guest")
		return guestIdentity(), true
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		v.logger.Debug().Msg("token has no subject, downgrading to guest")
		return guestIdentity(), true
	}
	return sub, false
}

func guestIdentity() string {
	return "guest-" + uuid.NewString()
}

// tokenFromRequest pulls the credential from the token query
// parameter or an Authorization bearer header.
func tokenFromRequest(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
