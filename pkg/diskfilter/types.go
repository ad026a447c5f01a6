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
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/heketi/diskfilter/pkg/disk"
)

type RAIDType int

const (
	Striped RAIDType = 0
	Mirror  RAIDType = 1
	RAID4   RAIDType = 4
	RAID5   RAIDType = 5
	RAID6   RAIDType = 6
	RAID10  RAIDType = 10
)

func (t RAIDType) String() string {
	switch t {
	case Striped:
		return "striped"
	case Mirror:
		return "mirror"
	case RAID4:
		return "raid4"
	case RAID5:
		return "raid5"
	case RAID6:
		return "raid6"
	case RAID10:
		return "raid10"
	}
	return fmt.Sprintf("raid(%d)", int(t))
}

// ParityCount is the number of parity blocks per stripe row.
func (t RAIDType) ParityCount() int {
	switch t {
	case RAID4, RAID5:
		return 1
	case RAID6:
		return 2
	}
	return 0
}

// RAID10Layout describes how the copies of a RAID10 block are placed.
// Near copies sit on consecutive members at the same offset; far
// copies are further down the members, either a whole member fraction
// away or, in offset mode, on the next stripe rows.
type RAID10Layout struct {
	Near      int
	Far       int
	FarOffset bool
}

// ParityLayout describes where the parity block of each stripe row
// goes. With RightRotation the parity moves to the next member on each
// row, otherwise to the previous one. Symmetric layouts start the data
// of a row right after its parity.
type ParityLayout struct {
	RightRotation bool
	Symmetric     bool
}

// PVId identifies a physical volume inside its group, either by a
// small ordinal or by a uuid.
type PVId struct {
	UUID []byte
	ID   uint64
}

// Matches compares by uuid when either side carries one.
func (id PVId) Matches(other PVId) bool {
	if len(id.UUID) != 0 || len(other.UUID) != 0 {
		return bytes.Equal(id.UUID, other.UUID)
	}
	return id.ID == other.ID
}

func (id PVId) String() string {
	if len(id.UUID) != 0 {
		return hex.EncodeToString(id.UUID)
	}
	return fmt.Sprintf("%d", id.ID)
}

type PhysicalVolume struct {
	Name       string
	ID         PVId
	InternalID string

	// Disk is nil until the member has been found. It is always the
	// whole disk, StartSector is absolute on it.
	Disk        disk.Disk
	StartSector uint64
	PartStart   uint64
	PartSize    uint64
	Partmaps    []string
}

type VolumeGroup struct {
	UUID       []byte
	Name       string
	ExtentSize uint64
	// Driver is the name of the detector that found the group
	Driver string
	PVs    []*PhysicalVolume
	LVs    []*LogicalVolume
}

type LogicalVolume struct {
	Name       string
	FullName   string
	IDName     string
	InternalID string
	Size       uint64
	Number     int
	Visible    bool
	Scanned    bool

	// BecameReadableAt is set once, the first time the volume is seen
	// readable after a member insertion. Zero means never.
	BecameReadableAt uint64

	Segments []*Segment
	VG       *VolumeGroup
}

type Segment struct {
	StartExtent uint64
	ExtentCount uint64
	Type        RAIDType
	StripeSize  uint64
	RAID10      RAID10Layout
	Parity      ParityLayout
	// MemberSize locates the far copies of RAID10
	MemberSize uint64
	Nodes      []*Node
}

// Node references either a physical volume or another logical volume,
// never both.
type Node struct {
	Name  string
	Start uint64
	PV    *PhysicalVolume
	LV    *LogicalVolume
}

func (vg *VolumeGroup) PVById(id PVId) *PhysicalVolume {
	for _, pv := range vg.PVs {
		if pv.ID.Matches(id) {
			return pv
		}
	}
	return nil
}

// segmentAt returns the segment covering extent, or nil.
func (lv *LogicalVolume) segmentAt(extent uint64) *Segment {
	for _, seg := range lv.Segments {
		if seg.StartExtent <= extent && seg.StartExtent+seg.ExtentCount > extent {
			return seg
		}
	}
	return nil
}
