package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/routebind/routebind/pkg/endpoint"
)

// bearerAuth returns a middleware stage that validates an HMAC-signed
// JWT from the Authorization header. On success the token subject is
// placed in the context state under "subject".
func bearerAuth(secret string) endpoint.Middleware {
	key := []byte(secret)
	return func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
		header := req.Header.Get("Authorization")
		if header == "" {
			return nil, endpoint.Unauthorized("missing bearer token")
		}
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return nil, endpoint.Unauthorized("missing bearer token")
		}

		token, err := jwtlib.Parse(tokenStr, func(t *jwtlib.Token) (any, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		}, jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil {
			c.Log("bearer token rejected: " + err.Error())
			return nil, endpoint.Unauthorized("invalid bearer token")
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return nil, endpoint.Unauthorized("token has no subject")
		}
		c.Set("subject", subject)
		c.Log("authenticated as " + subject)
		return nil, nil
	}
}
