//
// Copyright (c) 2015 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), as published by the Free Software Foundation,
// or under the Apache License, Version 2.0 <LICENSE-APACHE2 or
// http://www.apache.org/licenses/LICENSE-2.0>.
//
// You may not use this file except in compliance with those terms.
//

package client

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt"

	"github.com/heketi/diskfilter/pkg/utils"
)

const (
	MAX_CONCURRENT_REQUESTS = 32
)

// Client object
type Client struct {
	host     string
	key      string
	user     string
	throttle chan bool
}

// Creates a new client to access a diskfilter server
func NewClient(host, user, key string) *Client {
	c := &Client{}

	c.key = key
	c.host = strings.TrimRight(host, "/")
	c.user = user

	// Maximum concurrent requests
	c.throttle = make(chan bool, MAX_CONCURRENT_REQUESTS)

	return c
}

// Create a client to access a diskfilter server without authentication enabled
func NewClientNoAuth(host string) *Client {
	return NewClient(host, "", "")
}

func defaultTransportClone() *http.Transport {
	return http.DefaultTransport.(*http.Transport).Clone()
}

// volumePath returns the escaped path of a volume resource
func volumePath(name string, parts ...string) string {
	path := "/volumes/" + url.PathEscape(name)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// Simple Hello test to check if the server is up
func (c *Client) Hello() error {
	// Create request
	req, err := http.NewRequest("GET", c.host+"/hello", nil)
	if err != nil {
		return err
	}

	// Set token
	err = c.setToken(req)
	if err != nil {
		return err
	}

	// Get info
	r, err := c.do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		return utils.GetErrorFromResponse(r)
	}

	return nil
}

// Make sure we do not run out of fds by throttling the requests
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.throttle <- true
	defer func() {
		<-c.throttle
	}()

	httpClient := &http.Client{
		Transport: defaultTransportClone(),
	}
	return httpClient.Do(req)
}

// request builds, signs and sends a request, failing unless the
// response has the expected status.
func (c *Client) request(method, path string, body io.Reader, status int) (*http.Response, error) {
	req, err := http.NewRequest(method, c.host+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Set token
	err = c.setToken(req)
	if err != nil {
		return nil, err
	}

	r, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if r.StatusCode != status {
		return nil, utils.GetErrorFromResponse(r)
	}
	return r, nil
}

func (c *Client) setToken(r *http.Request) error {

	// Create qsh hash
	qshstring := r.Method + "&" + r.URL.EscapedPath()
	hash := sha256.New()
	hash.Write([]byte(qshstring))

	// Create Token
	token := jwt.New(jwt.SigningMethodHS256)
	claims := make(jwt.MapClaims)

	// Set issuer
	claims["iss"] = c.user

	// Set issued at time
	claims["iat"] = time.Now().Unix()

	// Set expiration
	claims["exp"] = time.Now().Add(time.Minute * 5).Unix()

	// Set qsh
	claims["qsh"] = hex.EncodeToString(hash.Sum(nil))

	token.Claims = claims

	// Sign the token
	signedtoken, err := token.SignedString([]byte(c.key))
	if err != nil {
		return fmt.Errorf("unable to sign token: %v", err)
	}

	// Save it in the header
	r.Header.Set("Authorization", "bearer "+signedtoken)

	return nil
}
