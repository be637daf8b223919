package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gclaussn/go-planning/auth"
	"github.com/gclaussn/go-planning/http/common"
)

// claimsKey is used as context value key by the authenticate middleware.
type claimsKey struct{}

const bearerPrefix = "Bearer "

// authenticate verifies the bearer token of a request and provides its claims via the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get(common.HeaderAuthorization)
		if len(authorization) <= len(bearerPrefix) || !strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
			s.logger.Debug("authentication failed", "method", r.Method, "uri", r.RequestURI, "remoteAddr", r.RemoteAddr)
			encodeJSONProblemResponseBody(w, r, s.logger, common.Problem{
				Status: http.StatusUnauthorized,
				Type:   common.ProblemUnauthorized,
				Title:  "failed to authenticate",
				Detail: "bearer token is missing",
			})
			return
		}

		claims, err := s.service.VerifyToken(authorization[len(bearerPrefix):])
		if err != nil {
			s.logger.Info("authentication failed", "method", r.Method, "uri", r.RequestURI, "remoteAddr", r.RemoteAddr, "err", err)
			encodeJSONProblemResponseBody(w, r, s.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(auth.Claims)
	return claims
}
