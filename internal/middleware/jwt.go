package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-overview-api/internal/utils"
)

// Locals keys populated by Authenticate.
const (
	LocalUserID   = "user_id"
	LocalSiteRole = "user_role"
)

// Site roles carried in access tokens. Course roles come from enrolments, not tokens.
const (
	SiteRoleUser  = "user"
	SiteRoleAdmin = "admin"
)

var errInvalidSubject = errors.New("token subject is not a user id")

// Claims are the access token claims issued by the course site.
type Claims struct {
	SiteRole string `json:"site_role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate validates HS256 bearer tokens and stores the user id and site role in locals.
func Authenticate(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authorization header missing", nil)
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || strings.ToLower(authorization[:len(bearer)]) != bearer {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid authorization header", nil)
		}

		var claims Claims
		token, err := parser.ParseWithClaims(strings.TrimSpace(authorization[len(bearer):]), &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token", nil)
		}

		userID, err := subjectUserID(claims.Subject)
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token claims", nil)
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalSiteRole, normalizeSiteRole(claims.SiteRole))
		return c.Next()
	}
}

// SignToken issues an access token for userID.
func SignToken(secret string, userID uint, siteRole string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SiteRole: normalizeSiteRole(siteRole),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func subjectUserID(subject string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(subject), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errInvalidSubject
	}
	return uint(parsed), nil
}

func normalizeSiteRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), SiteRoleAdmin) {
		return SiteRoleAdmin
	}
	return SiteRoleUser
}
