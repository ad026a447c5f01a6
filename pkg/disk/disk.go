//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

// Package disk holds the generic block device layer the diskfilter
// engine is built on: disks, the sources that enumerate and open them,
// partition maps and the error taxonomy shared by every device.
package disk

const (
	SectorBits = 9
	SectorSize = 1 << SectorBits
)

type DeviceType int

const (
	DeviceTypeUnknown DeviceType = iota
	DeviceTypeFile
	DeviceTypeMemory
	DeviceTypeCrypto
	DeviceTypeDiskfilter
)

var deviceTypeNames = map[DeviceType]string{
	DeviceTypeUnknown:    "unknown",
	DeviceTypeFile:       "file",
	DeviceTypeMemory:     "memory",
	DeviceTypeCrypto:     "crypto",
	DeviceTypeDiskfilter: "diskfilter",
}

func (t DeviceType) String() string {
	if name, ok := deviceTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Pull is an enumeration pass. Sources are walked once per pass,
// cheapest devices first.
type Pull int

const (
	PullNone Pull = iota
	PullRemovable
	PullRescan
	PullMax
)

func (p Pull) String() string {
	switch p {
	case PullNone:
		return "none"
	case PullRemovable:
		return "removable"
	case PullRescan:
		return "rescan"
	}
	return "invalid"
}

// Disk is an opened block device. Reads are whole sectors: the
// length of buf must be a multiple of SectorSize.
type Disk interface {
	Name() string
	Type() DeviceType
	// ID is unique among the open disks of one DeviceType.
	ID() uint64
	Sectors() uint64
	ReadSectors(sector uint64, buf []byte) error
	Close() error
}

// Writer is implemented by disks that accept writes.
type Writer interface {
	WriteSectors(sector uint64, buf []byte) error
}

// Source enumerates and opens disks of a single driver.
type Source interface {
	Name() string
	Type() DeviceType
	// Iterate calls hook with the name of every disk the source offers
	// during the given pass. It stops and returns true as soon as hook
	// returns true.
	Iterate(pull Pull, hook func(name string) bool) bool
	// Open returns ErrUnknownDevice for names the source does not own.
	Open(name string) (Disk, error)
}

// CheckRange verifies that a read of buf at sector stays inside d.
func CheckRange(d Disk, sector uint64, buf []byte) error {
	if len(buf)%SectorSize != 0 {
		return ErrBadArgument.Errorf("read of %v bytes is not sector aligned", len(buf))
	}
	count := uint64(len(buf)) >> SectorBits
	if sector > d.Sectors() || count > d.Sectors()-sector {
		return ErrOutOfRange.Errorf("attempt to read outside of disk `%v'", d.Name())
	}
	return nil
}
