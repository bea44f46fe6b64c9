package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
)

const (
	contextTokenKey    = "userToken"
	contextIdentityKey = "identity"
)

var nowFunc = time.Now // mockable

// Claims represents the session claims transmitted via the session cookie.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (c Claims) identity() user.Identity {
	return user.Identity{ID: c.Subject, Username: c.Username, Email: c.Email}
}

type authenticator struct {
	conf     *core.Config
	sessions core.SessionStore
	key      []byte
}

func newAuthenticator(conf *core.Config, sessions core.SessionStore) *authenticator {
	return &authenticator{conf: conf, sessions: sessions, key: []byte(conf.SecretKey)}
}

// jwtConfig is the JWT auth middleware config reading the session cookie.
func (a *authenticator) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    a.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		TokenLookup:   "cookie:" + a.conf.Server.SessionCookieName,
		ErrorHandler: func(error) error {
			return errUnauthorized
		},
	}
}

// newClaims returns the claims of a fresh session for usr.
func (a *authenticator) newClaims(usr user.User) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.conf.Server.SessionExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Email:    usr.Email,
	}
}

// generateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) parseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.key, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *authenticator) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     a.conf.Server.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !(a.conf.Debug || a.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	}
}

// login starts a session for usr.
func (a *authenticator) login(ctx echo.Context, usr user.User) error {
	claims := a.newClaims(usr)
	token, err := a.generateToken(claims)
	if err != nil {
		return err
	}
	ctx.SetCookie(a.cookie(token, time.Unix(claims.ExpiresAt, 0)))
	return nil
}

// logout revokes the current session, if any, and clears the cookie.
func (a *authenticator) logout(ctx echo.Context) error {
	defer func() {
		c := a.cookie("", time.Unix(0, 0))
		c.MaxAge = -1
		ctx.SetCookie(c)
	}()

	cookie, err := ctx.Cookie(a.conf.Server.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := a.parseToken(cookie.Value)
	if err != nil {
		return nil // nothing to revoke
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	return errors.Wrap(a.sessions.Revoke(ctx.Request().Context(), claims.Id, ttl), "revoking session")
}

// identityMiddleware rejects revoked sessions and stores the user.Identity of the request.
// It runs after the JWT middleware.
func (a *authenticator) identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		revoked, err := a.sessions.IsRevoked(ctx.Request().Context(), claims.Id)
		if err != nil {
			return errors.Wrap(err, "checking session revocation")
		}
		if revoked || claims.Subject == "" {
			return errUnauthorized
		}
		ctx.Set(contextIdentityKey, claims.identity())
		return next(ctx)
	}
}

// optionalIdentity returns the identity of a valid session cookie without requiring one.
func (a *authenticator) optionalIdentity(ctx echo.Context) user.Identity {
	cookie, err := ctx.Cookie(a.conf.Server.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return user.Identity{}
	}
	claims, err := a.parseToken(cookie.Value)
	if err != nil {
		return user.Identity{}
	}
	if revoked, err := a.sessions.IsRevoked(ctx.Request().Context(), claims.Id); err != nil || revoked {
		return user.Identity{}
	}
	return claims.identity()
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextIdentity returns the authenticated user of the request; zero on public routes.
func contextIdentity(ctx echo.Context) user.Identity {
	id, _ := ctx.Get(contextIdentityKey).(user.Identity)
	return id
}
