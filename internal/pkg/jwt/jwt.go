package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrInvalidToken           = errors.New("invalid or missing access token")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
)

// Claims is the identity extracted from a verified access token.
type Claims struct {
	EmployeeID string
	IsAdmin    bool
}

type Service interface {
	GenerateAccessToken(employeeID string, isAdmin bool) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateAccessToken issues a token for an employee. Tokens are minted by the
// identity service in production; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(employeeID string, isAdmin bool) (string, int64, error) {
	expiresAt := time.Now().Add(j.accessTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]any{
		"employee_id": employeeID,
		"is_admin":    isAdmin,
		"type":        "access",
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// ClaimsFromContext reads the claims that jwtauth.Verifier placed in ctx.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	tokenType, _ := claims["type"].(string)
	employeeID, _ := claims["employee_id"].(string)
	isAdmin, _ := claims["is_admin"].(bool)
	if tokenType != "access" || employeeID == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{EmployeeID: employeeID, IsAdmin: isAdmin}, nil
}
