//
// Copyright (c) 2015 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.

package utils

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/google/uuid"
	"github.com/lpabon/godbc"
)

var (
	Randomness io.Reader = rand.Reader
)

// GenUUID returns a random version 4 uuid as 32 hex characters. It is
// used for request and scan ids.
func GenUUID() string {
	u, err := uuid.NewRandomFromReader(Randomness)
	godbc.Check(err == nil, err)

	return hex.EncodeToString(u[:])
}

// FormatUUID renders an array uuid for display. Sixteen byte uuids
// use the canonical dashed form; anything else is plain hex.
func FormatUUID(b []byte) string {
	if len(b) == 16 {
		if u, err := uuid.FromBytes(b); err == nil {
			return u.String()
		}
	}
	return hex.EncodeToString(b)
}
