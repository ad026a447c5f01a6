//
// Copyright (c) 2015 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware"
	jwt "github.com/golang-jwt/jwt"
)

const (
	AdminIssuer = "admin"
	UserIssuer  = "user"
)

var claimsKey = contextKey("jwt")

type JwtAuth struct {
	adminKey []byte
	userKey  []byte
}

type Issuer struct {
	PrivateKey string `json:"key"`
}

type JwtAuthConfig struct {
	Admin Issuer `json:"admin"`
	User  Issuer `json:"user"`
}

// JwtClaims are the claims of a request token. Qsh binds the token to
// the method and path of the request.
type JwtClaims struct {
	Qsh string `json:"qsh"`
	jwt.StandardClaims
}

// Qsh returns the query string hash of a request
func Qsh(method, path string) string {
	claim := method + "&" + path
	hash := sha256.New()
	hash.Write([]byte(claim))
	return hex.EncodeToString(hash.Sum(nil))
}

// GetJwtClaims returns the claims of an authenticated request
func GetJwtClaims(ctx context.Context) *JwtClaims {
	claims, _ := ctx.Value(claimsKey).(*JwtClaims)
	return claims
}

func NewJwtAuth(config *JwtAuthConfig) *JwtAuth {

	if config.Admin.PrivateKey == "" ||
		config.User.PrivateKey == "" {
		return nil
	}

	j := &JwtAuth{}
	j.adminKey = []byte(config.Admin.PrivateKey)
	j.userKey = []byte(config.User.PrivateKey)

	return j
}

func (j *JwtAuth) ServeHTTP(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {

	// Access token from header
	rawtoken, err := jwtmiddleware.FromAuthHeader(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Determine if we have the token
	if rawtoken == "" {
		http.Error(w, "Required authorization token not found", http.StatusUnauthorized)
		return
	}

	// Parse token
	claims := &JwtClaims{}
	_, err = jwt.ParseWithClaims(rawtoken, claims, func(token *jwt.Token) (interface{}, error) {

		// Verify Method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}

		switch claims.Issuer {
		case AdminIssuer:
			return j.adminKey, nil
		case UserIssuer:
			return j.userKey, nil
		default:
			return nil, errors.New("Unknown user")
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	// Check that required claims are set
	if !claims.VerifyIssuedAt(time.Now().Unix(), true) {
		http.Error(w, "Token missing iat claim", http.StatusUnauthorized)
		return
	}

	if claims.Qsh != Qsh(r.Method, r.URL.EscapedPath()) {
		http.Error(w, "Invalid qsh claim in token", http.StatusUnauthorized)
		return
	}

	// Everything passes call next middleware
	next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
}
