//
// Copyright (c) 2015 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package utils

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heketi/tests"
)

type testJson struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGetJsonFromRequest(t *testing.T) {
	r, err := http.NewRequest("POST", "/x",
		bytes.NewBufferString(`{"name":"md/root","count":3}`))
	tests.Assert(t, err == nil)

	var v testJson
	err = GetJsonFromRequest(r, &v)
	tests.Assert(t, err == nil, err)
	tests.Assert(t, v.Name == "md/root")
	tests.Assert(t, v.Count == 3)

	r, err = http.NewRequest("POST", "/x", bytes.NewBufferString(`{"name":`))
	tests.Assert(t, err == nil)
	err = GetJsonFromRequest(r, &v)
	tests.Assert(t, err != nil)
}

func TestGetErrorFromResponse(t *testing.T) {
	r := &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       ioutil.NopCloser(strings.NewReader("no such volume\n")),
	}
	err := GetErrorFromResponse(r)
	tests.Assert(t, err.Error() == "no such volume", err)

	r = &http.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       ioutil.NopCloser(strings.NewReader("")),
	}
	err = GetErrorFromResponse(r)
	tests.Assert(t, strings.Contains(err.Error(), "status 500"), err)
}

func TestWriteJsonResponse(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJsonResponse(w, http.StatusCreated, testJson{Name: "a", Count: 1})
	tests.Assert(t, w.Code == http.StatusCreated)
	tests.Assert(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))

	var v testJson
	err := GetJsonFromResponse(w.Result(), &v)
	tests.Assert(t, err == nil)
	tests.Assert(t, v.Name == "a" && v.Count == 1)
}
