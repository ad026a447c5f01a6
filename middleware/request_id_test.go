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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heketi/tests"
	"github.com/urfave/negroni"
)

func TestNeedsRequestID(t *testing.T) {
	for _, c := range []struct {
		method, path string
		needs        bool
	}{
		{"GET", "/volumes", false},
		{"GET", "/volumes/md%2Froot", false},
		{"GET", "/volumes/md%2Froot/data", true},
		{"GET", "/volumes/md%2Froot/data/", true},
		{"PUT", "/volumes/md%2Froot/data", true},
		{"POST", "/rescan", true},
		{"GET", "/inventory", false},
	} {
		r, err := http.NewRequest(c.method, "http://localhost"+c.path, nil)
		tests.Assert(t, err == nil)
		tests.Assert(t, needsRequestID(r) == c.needs, c.method, c.path)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	n := negroni.New(&RequestID{})
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	})
	ts := httptest.NewServer(n)
	defer ts.Close()

	r, err := http.Get(ts.URL + "/volumes")
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK)
	tests.Assert(t, got == "")

	r, err = http.Post(ts.URL+"/rescan", "application/json", nil)
	tests.Assert(t, err == nil)
	tests.Assert(t, r.StatusCode == http.StatusOK)
	tests.Assert(t, len(got) == 32, got)
	tests.Assert(t, r.Header.Get("X-Request-ID") == got)
}
