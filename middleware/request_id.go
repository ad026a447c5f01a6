//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/heketi/diskfilter/pkg/utils"
)

type contextKey string

var requestIDKey = contextKey("X-Request-ID")

type RequestID struct {
}

// GetRequestID returns the request id from HTTP context.
func GetRequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(requestIDKey).(string)
	return reqID
}

// needsRequestID is true for requests that make the server touch the
// disks: anything but a GET, and GETs of volume data.
func needsRequestID(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return true
	}
	path := strings.TrimRight(r.URL.EscapedPath(), "/")
	urlPart := strings.Split(path, "/")
	return len(urlPart) >= 4 &&
		urlPart[1] == "volumes" &&
		urlPart[len(urlPart)-1] == "data"
}

func (reqID *RequestID) ServeHTTP(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {

	if !needsRequestID(r) {
		next(w, r)
		return
	}

	id := utils.GenUUID()
	w.Header().Set(string(requestIDKey), id)
	newCtx := context.WithValue(r.Context(), requestIDKey, id)
	next(w, r.WithContext(newCtx))
}
