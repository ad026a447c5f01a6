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
	"bytes"
	"testing"

	"github.com/heketi/tests"
)

func TestMemDiskReadWrite(t *testing.T) {
	src := NewMemSource("mem", DeviceTypeMemory)
	d := src.Add(NewMemDisk("m0", 4))

	tests.Assert(t, d.Sectors() == 4)
	tests.Assert(t, d.ID() != 0)
	tests.Assert(t, d.Type() == DeviceTypeMemory)

	d.Fill(2, 0x5a)
	buf := make([]byte, 2*SectorSize)
	err := d.ReadSectors(1, buf)
	tests.Assert(t, err == nil, err)
	tests.Assert(t, bytes.Equal(buf[:SectorSize], make([]byte, SectorSize)))
	tests.Assert(t, bytes.Equal(buf[SectorSize:], bytes.Repeat([]byte{0x5a}, SectorSize)))

	err = d.WriteSectors(3, bytes.Repeat([]byte{1}, SectorSize))
	tests.Assert(t, err == nil, err)
	tests.Assert(t, d.Data[3*SectorSize] == 1)
}

func TestMemDiskErrors(t *testing.T) {
	d := NewMemDisk("m0", 4)

	err := d.ReadSectors(3, make([]byte, 2*SectorSize))
	tests.Assert(t, ErrOutOfRange.In(err), err)
	tests.Assert(t, !Retryable(err))

	err = d.ReadSectors(0, make([]byte, 100))
	tests.Assert(t, ErrBadArgument.In(err), err)

	d.Fail = true
	err = d.ReadSectors(0, make([]byte, SectorSize))
	tests.Assert(t, ErrReadError.In(err), err)
	tests.Assert(t, Retryable(err))
}

func TestMemSourceIterate(t *testing.T) {
	src := NewMemSource("mem", DeviceTypeCrypto)
	src.Add(NewMemDisk("a", 1))
	r := NewMemDisk("b", 1)
	r.Removable = true
	src.Add(r)
	src.Add(NewMemDisk("c", 1))

	list := func(pull Pull) []string {
		var names []string
		src.Iterate(pull, func(name string) bool {
			names = append(names, name)
			return false
		})
		return names
	}

	tests.Assert(t, len(list(PullNone)) == 2)
	tests.Assert(t, list(PullNone)[1] == "c")
	tests.Assert(t, len(list(PullRemovable)) == 1)
	tests.Assert(t, list(PullRemovable)[0] == "b")
	tests.Assert(t, len(list(PullRescan)) == 0)

	// stop on first
	count := 0
	stopped := src.Iterate(PullNone, func(name string) bool {
		count++
		return true
	})
	tests.Assert(t, stopped)
	tests.Assert(t, count == 1)

	d, err := src.Open("b")
	tests.Assert(t, err == nil, err)
	tests.Assert(t, d.Type() == DeviceTypeCrypto)
	tests.Assert(t, d.ID() == r.ID())
	tests.Assert(t, d.ID() != 0)

	_, err = src.Open("zz")
	tests.Assert(t, ErrUnknownDevice.In(err), err)

	src.Remove("b")
	_, err = src.Open("b")
	tests.Assert(t, ErrUnknownDevice.In(err), err)
}

func TestDeviceTypeString(t *testing.T) {
	tests.Assert(t, DeviceTypeCrypto.String() == "crypto")
	tests.Assert(t, DeviceTypeDiskfilter.String() == "diskfilter")
	tests.Assert(t, DeviceType(99).String() == "unknown")
	tests.Assert(t, PullRescan.String() == "rescan")
	tests.Assert(t, PullMax.String() == "invalid")
}
