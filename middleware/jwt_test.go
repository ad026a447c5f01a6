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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt"
	"github.com/heketi/tests"
	"github.com/urfave/negroni"
)

func newJwtServer(t *testing.T, called *string) *httptest.Server {
	j := NewJwtAuth(&JwtAuthConfig{
		Admin: Issuer{PrivateKey: "Key"},
		User:  Issuer{PrivateKey: "UserKey"},
	})
	tests.Assert(t, j != nil)

	n := negroni.New(j)
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetJwtClaims(r.Context())
		tests.Assert(t, claims != nil)
		*called = claims.Issuer
	})
	return httptest.NewServer(n)
}

func signedRequest(t *testing.T, method, url, path, issuer, key string, iat int64) *http.Request {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtClaims{
		Qsh: Qsh(method, path),
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			IssuedAt:  iat,
			ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
		},
	})
	tokenString, err := token.SignedString([]byte(key))
	tests.Assert(t, err == nil)

	req, err := http.NewRequest(method, url+path, nil)
	tests.Assert(t, err == nil)
	req.Header.Set("Authorization", "bearer "+tokenString)
	return req
}

func TestNewJwtAuthMissingKeys(t *testing.T) {
	j := NewJwtAuth(&JwtAuthConfig{Admin: Issuer{PrivateKey: "Key"}})
	tests.Assert(t, j == nil)
}

func TestJwtNoToken(t *testing.T) {
	called := ""
	ts := newJwtServer(t, &called)
	defer ts.Close()

	r, err := http.Get(ts.URL + "/volumes")
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusUnauthorized)
	tests.Assert(t, called == "")
}

func TestJwtBadHeader(t *testing.T) {
	called := ""
	ts := newJwtServer(t, &called)
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL+"/volumes", nil)
	tests.Assert(t, err == nil)
	req.Header.Set("Authorization", "basic abc")
	r, err := http.DefaultClient.Do(req)
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusBadRequest)
	tests.Assert(t, called == "")
}

func TestJwtIssuers(t *testing.T) {
	called := ""
	ts := newJwtServer(t, &called)
	defer ts.Close()

	now := time.Now().Unix()

	r, err := http.DefaultClient.Do(
		signedRequest(t, "GET", ts.URL, "/volumes", "admin", "Key", now))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK)
	tests.Assert(t, called == "admin")

	r, err = http.DefaultClient.Do(
		signedRequest(t, "GET", ts.URL, "/volumes", "user", "UserKey", now))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK)
	tests.Assert(t, called == "user")

	// wrong key for the issuer
	called = ""
	r, err = http.DefaultClient.Do(
		signedRequest(t, "GET", ts.URL, "/volumes", "user", "Key", now))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusUnauthorized)

	r, err = http.DefaultClient.Do(
		signedRequest(t, "GET", ts.URL, "/volumes", "nobody", "Key", now))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusUnauthorized)
	tests.Assert(t, called == "")
}

func TestJwtClaimChecks(t *testing.T) {
	called := ""
	ts := newJwtServer(t, &called)
	defer ts.Close()

	// no iat
	r, err := http.DefaultClient.Do(
		signedRequest(t, "GET", ts.URL, "/volumes", "admin", "Key", 0))
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusUnauthorized)

	// token made for another path
	req := signedRequest(t, "GET", ts.URL, "/volumes", "admin", "Key", time.Now().Unix())
	req.URL.Path = "/inventory"
	r, err = http.DefaultClient.Do(req)
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusUnauthorized)
	tests.Assert(t, called == "")
}
