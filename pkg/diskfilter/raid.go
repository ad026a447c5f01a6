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
	"fmt"

	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/utils"
)

const (
	MaxRAIDMembers = 4096
)

// ArrayInfo describes a RAID array as read from a member superblock.
type ArrayInfo struct {
	UUID []byte
	// Name may carry a "homehost:" prefix, which is dropped
	Name    string
	Members int
	// MemberSize is the data size of each member, in sectors
	MemberSize uint64
	StripeSize uint64
	Level      RAIDType
	RAID10     RAID10Layout
	Parity     ParityLayout
}

// Size returns the size of the array data in sectors.
func (a *ArrayInfo) Size() (uint64, error) {
	members := uint64(a.Members)

	switch a.Level {
	case Mirror:
		return a.MemberSize, nil
	case RAID10:
		copies := a.RAID10.Near
		if copies == 1 {
			copies = a.RAID10.Far
		}
		if copies <= 0 {
			return 0, disk.ErrBadFilesystem.Errorf("invalid RAID10 layout")
		}
		return members * a.MemberSize / uint64(copies), nil
	case Striped, RAID4, RAID5, RAID6:
		parity := a.Level.ParityCount()
		if a.Members <= parity {
			return 0, disk.ErrBadFilesystem.Errorf("not enough members for %v", a.Level)
		}
		return (members - uint64(parity)) * a.MemberSize, nil
	}
	return 0, disk.ErrNotImplemented.Errorf("unsupported RAID level %d", int(a.Level))
}

// MakeRAID returns the group of the array described by info. An array
// already registered under the same uuid is updated: its volume grows
// to the largest size seen and its member size shrinks to the
// smallest. Otherwise a group holding one volume over info.Members
// physical volumes, numbered from zero, is registered.
func (r *Registry) MakeRAID(info *ArrayInfo) (*VolumeGroup, error) {
	godbc.Require(info != nil)

	if info.Members < 1 || info.Members > MaxRAIDMembers {
		return nil, disk.ErrBadDevice.Errorf("unsupported number of members %v", info.Members)
	}
	size, err := info.Size()
	if err != nil {
		return nil, err
	}

	if vg := r.VGByUUID(info.UUID); vg != nil {
		if len(vg.LVs) != 0 {
			lv := vg.LVs[0]
			if lv.Size < size {
				lv.Size = size
				if len(lv.Segments) != 0 {
					lv.Segments[0].ExtentCount = size
				}
			}
			if len(lv.Segments) != 0 && lv.Segments[0].MemberSize > info.MemberSize {
				lv.Segments[0].MemberSize = info.MemberSize
			}
		}
		return vg, nil
	}

	vg := &VolumeGroup{
		UUID:       append([]byte(nil), info.UUID...),
		ExtentSize: 1,
	}
	if info.Name != "" {
		vg.Name = utils.MDArrayName(info.Name)
	}

	seg := &Segment{
		StartExtent: 0,
		ExtentCount: size,
		Type:        info.Level,
		StripeSize:  info.StripeSize,
		RAID10:      info.RAID10,
		Parity:      info.Parity,
		MemberSize:  info.MemberSize,
	}
	label := vg.Name
	if label == "" {
		label = utils.MDUUIDName(vg.UUID)
	}
	for i := 0; i < info.Members; i++ {
		pv := &PhysicalVolume{
			Name: fmt.Sprintf("%v#%d", label, i),
			ID:   PVId{ID: uint64(i)},
		}
		vg.PVs = append(vg.PVs, pv)
		seg.Nodes = append(seg.Nodes, &Node{
			Name: pv.Name,
			PV:   pv,
		})
	}

	lv := &LogicalVolume{
		Name:     vg.Name,
		FullName: vg.Name,
		IDName:   utils.MDUUIDName(vg.UUID),
		Size:     size,
		Visible:  true,
		Segments: []*Segment{seg},
		VG:       vg,
	}
	vg.LVs = []*LogicalVolume{lv}

	if err := r.Register(vg); err != nil {
		return nil, err
	}
	return vg, nil
}
