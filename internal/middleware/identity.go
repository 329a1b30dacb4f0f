package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/model"
)

type principalKey struct{}

// AccessTokenCookie is read when no Authorization header is sent.
const AccessTokenCookie = "accessToken"

// PrincipalResolver confirms that the subject of a valid token still
// exists.
type PrincipalResolver interface {
	Principal(ctx context.Context, id bson.ObjectID) (model.Principal, error)
}

// IdentityConfig configures NewIdentity.
type IdentityConfig struct {
	// Secret verifies HS256 access tokens.
	Secret []byte
	// Resolver is optional. Without it every well-signed token is trusted.
	Resolver PrincipalResolver
}

// NewIdentity resolves the request's principal from a bearer token. A
// request without a token is anonymous; a token that does not verify is
// rejected with 401.
func NewIdentity(cfg IdentityConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			c.Locals(principalKey{}, model.Anonymous)
			return c.Next()
		}

		id, err := ParseAccessToken(raw, cfg.Secret)
		if err != nil {
			log.Debug().Err(err).Msg("identity: token rejected")
			return ErrorResponse(c, fiber.StatusUnauthorized, "Invalid access token")
		}

		p := model.Principal{ID: id}
		if cfg.Resolver != nil {
			p, err = cfg.Resolver.Principal(c.Context(), id)
			if err != nil {
				kind := apperr.KindOf(err)
				if kind == apperr.KindInternal {
					log.Error().Err(err).Msg("identity: principal lookup failed")
				}
				return ErrorResponse(c, kind.Status(), apperr.Message(err))
			}
		}

		c.Locals(principalKey{}, p)
		return c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		if PrincipalFrom(c).IsAnonymous() {
			return ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required")
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal resolved for the request, or
// model.Anonymous.
func PrincipalFrom(c fiber.Ctx) model.Principal {
	if p, ok := c.Locals(principalKey{}).(model.Principal); ok {
		return p
	}
	return model.Anonymous
}

// ParseAccessToken verifies an HS256 token and returns the user id carried
// in its "sub" claim, or in "_id" for tokens that predate "sub".
func ParseAccessToken(raw string, secret []byte) (bson.ObjectID, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return bson.ObjectID{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return bson.ObjectID{}, jwt.ErrTokenInvalidClaims
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		subject, _ = claims["_id"].(string)
	}
	id, err := bson.ObjectIDFromHex(subject)
	if err != nil {
		return bson.ObjectID{}, jwt.ErrTokenInvalidSubject
	}
	return id, nil
}

func bearerToken(c fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Cookies(AccessTokenCookie)
}
