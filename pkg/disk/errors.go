//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package disk

import (
	"github.com/heketi/diskfilter/pkg/errtag"
)

var (
	ErrUnknownDevice  = errtag.NewTag("Unknown device")
	ErrReadError      = errtag.NewTag("Read error")
	ErrBadFilesystem  = errtag.NewTag("Bad filesystem")
	ErrBadDevice      = errtag.NewTag("Bad device")
	ErrNotImplemented = errtag.NewTag("Not implemented")
	ErrOutOfRange     = errtag.NewTag("Out of range")
	ErrBadArgument    = errtag.NewTag("Bad argument")
	ErrTestFailure    = errtag.NewTag("Test failure")
)

// Retryable reports whether err is a member failure that may be
// served by another copy of the data.
func Retryable(err error) bool {
	return ErrReadError.In(err) || ErrUnknownDevice.In(err)
}
