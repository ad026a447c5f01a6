//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package errtag

import (
	"fmt"

	"github.com/pkg/errors"
)

type errData struct {
	desc string
}

// ErrTag can create identifiable errors
type ErrTag struct {
	data *errData
}

// NewTag returns a new ErrTag
func NewTag(desc string) ErrTag {
	return ErrTag{&errData{desc}}
}

// String returns the description the tag was created with
func (e ErrTag) String() string {
	return e.data.desc
}

// In returns true if the error has been created from this ErrTag.
// Errors wrapped with fmt.Errorf("%w") or errors.Wrap are unwrapped.
func (e ErrTag) In(err error) bool {
	var inst *errInstance
	if !errors.As(err, &inst) {
		return false
	}
	return e.data == inst.data
}

// Err creates an error from ErrTag
func (e ErrTag) Err() error {
	return errors.WithStack(&errInstance{data: e.data})
}

// Errorf creates an error from ErrTag whose message is built from
// format and args instead of the tag description.
func (e ErrTag) Errorf(format string, args ...interface{}) error {
	return errors.WithStack(&errInstance{
		data: e.data,
		msg:  fmt.Sprintf(format, args...),
	})
}

type errInstance struct {
	data *errData
	msg  string
}

func (e *errInstance) Error() string {
	if e.msg == "" {
		return e.data.desc
	}
	return e.msg
}
