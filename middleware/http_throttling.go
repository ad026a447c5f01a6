//Package middleware for the diskfilter server
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
	"sync"
	"time"
)

var (
	throttleNow func() time.Time = time.Now
)

//ReqLimiter bounds the number of requests touching the disks at once
type ReqLimiter struct {
	maxcount     uint32
	servingCount uint32
	//requests being served, by request id
	requestCache map[string]time.Time
	lock         sync.RWMutex
}

//NewHTTPThrottler Function to return the ReqLimiter
func NewHTTPThrottler(count uint32) *ReqLimiter {
	return &ReqLimiter{
		maxcount:     count,
		requestCache: make(map[string]time.Time),
	}
}

//Function to check if more requests can be taken
func (r *ReqLimiter) reachedMaxRequest() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.servingCount >= r.maxcount
}

//Function to take a slot; false when none is free
func (r *ReqLimiter) incRequest(reqID string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.servingCount >= r.maxcount {
		return false
	}
	r.servingCount++
	if reqID != "" {
		r.requestCache[reqID] = throttleNow()
	}
	return true
}

//Function to release the slot of a request
func (r *ReqLimiter) decRequest(reqID string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.requestCache, reqID)
	r.servingCount--
}

//Serving returns the ids of requests in progress and when they started
func (r *ReqLimiter) Serving() map[string]time.Time {
	r.lock.RLock()
	defer r.lock.RUnlock()
	serving := make(map[string]time.Time, len(r.requestCache))
	for id, t := range r.requestCache {
		serving[id] = t
	}
	return serving
}

func (r *ReqLimiter) ServeHTTP(hw http.ResponseWriter, hr *http.Request, next http.HandlerFunc) {

	if !needsRequestID(hr) {
		next(hw, hr)
		return
	}

	reqID := GetRequestID(hr.Context())
	if !r.incRequest(reqID) {
		http.Error(hw, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	defer r.decRequest(reqID)

	next(hw, hr)
}
