package identity

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

// Identity is the authenticated user as seen by the chat engine. It is
// used to distinguish self-originated traffic and to stamp the sender
// snapshot on optimistic sends.
type Identity struct {
	UserId    int64  `json:"userId"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Claims are the platform's JWT claims relevant to chat.
type Claims struct {
	UserId    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

// FromToken parses and verifies the platform's JWT token and extracts
// the chat identity from it.
func FromToken(tokenString, secret string) (*Identity, error) {
	if tokenString == "" {
		return nil, errcode.ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errcode.ErrTokenInvalid
	}

	return claimsToIdentity(claims)
}

// FromTokenUnverified extracts the identity without verifying the
// signature. The server is the authority on the token; clients that only
// need the user id for self-traffic detection can skip verification.
func FromTokenUnverified(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, errcode.ErrTokenMissing
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errcode.ErrTokenInvalid
	}

	return claimsToIdentity(claims)
}

func claimsToIdentity(claims *Claims) (*Identity, error) {
	if claims.UserId == 0 {
		return nil, errcode.ErrTokenInvalid
	}
	return &Identity{
		UserId:    claims.UserId,
		Username:  claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}
