//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package diskfilter

import (
	"net/http"

	"github.com/heketi/diskfilter/pkg/disk"
	df "github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/inventory"
)

// errorStatus maps the disk error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case disk.ErrUnknownDevice.In(err), inventory.ErrNotFound.In(err):
		return http.StatusNotFound
	case disk.ErrBadArgument.In(err):
		return http.StatusBadRequest
	case disk.ErrOutOfRange.In(err):
		return http.StatusRequestedRangeNotSatisfiable
	case disk.ErrNotImplemented.In(err), df.ErrModuleMissing.In(err):
		return http.StatusNotImplemented
	case disk.ErrReadError.In(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func httpError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errorStatus(err))
}
