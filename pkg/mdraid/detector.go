//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

// Package mdraid finds the members of Linux md arrays with version 1
// superblocks.
package mdraid

import (
	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/utils"
)

const (
	DetectorName = "mdraid1x"
)

var (
	logger = utils.NewLogger("[mdraid]", utils.LEVEL_INFO)
)

type Detector struct{}

// Register adds the md detector to r.
func Register(r *diskfilter.Registry) {
	r.RegisterDetector(&Detector{})
}

func (m *Detector) Name() string {
	return DetectorName
}

// superblockSector returns where minor version 0, 1 or 2 keeps its
// superblock on a disk of size sectors.
func superblockSector(minor int, size uint64) (uint64, bool) {
	switch minor {
	case 0:
		// 8K from the end, 4K aligned
		if size < 16 {
			return 0, false
		}
		return (size - 16) &^ 7, true
	case 1:
		return 0, true
	case 2:
		return 8, true
	}
	return 0, false
}

func (m *Detector) Detect(r *diskfilter.Registry, d disk.Disk) (*diskfilter.Detection, error) {
	for minor := 0; minor < 3; minor++ {
		sector, ok := superblockSector(minor, d.Sectors())
		if !ok {
			continue
		}

		sb, err := readSuperblock(d, sector)
		if disk.ErrOutOfRange.In(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if sb.Magic != Magic || sb.SuperOffset != sector {
			continue
		}

		logger.Debug("md superblock 1.%v found on %v", minor, d.Name())
		return m.assemble(r, d, sector, sb)
	}
	return nil, nil
}

func (m *Detector) assemble(r *diskfilter.Registry, d disk.Disk,
	sector uint64, sb *Superblock) (*diskfilter.Detection, error) {

	if sb.MajorVersion != 1 {
		return nil, disk.ErrNotImplemented.Errorf("unsupported RAID version: %d", sb.MajorVersion)
	}

	level := sb.Level
	if level == LevelMultipath {
		level = int32(diskfilter.Mirror)
	}
	switch diskfilter.RAIDType(level) {
	case diskfilter.Striped, diskfilter.Mirror, diskfilter.RAID4,
		diskfilter.RAID5, diskfilter.RAID6, diskfilter.RAID10:
	default:
		return nil, disk.ErrNotImplemented.Errorf("unsupported RAID level: %d", sb.Level)
	}

	if sb.MaxDev > diskfilter.MaxRAIDMembers {
		return nil, disk.ErrBadDevice.Errorf("too many devices in md superblock: %v", sb.MaxDev)
	}
	if sb.DevNumber >= sb.MaxDev {
		return nil, disk.ErrBadDevice.Errorf("spares aren't implemented")
	}

	role, err := readRole(d, sector, sb)
	if err != nil {
		return nil, err
	}
	if role >= RoleFaulty {
		logger.Debug("%v is a spare or faulty device, ignored", d.Name())
		return nil, nil
	}

	raid10, parity := sb.Layouts()
	vg, err := r.MakeRAID(&diskfilter.ArrayInfo{
		UUID:       append([]byte(nil), sb.SetUUID[:]...),
		Name:       sb.Name(),
		Members:    int(sb.RaidDisks),
		MemberSize: sb.MemberSize(),
		StripeSize: uint64(sb.ChunkSize),
		Level:      diskfilter.RAIDType(level),
		RAID10:     raid10,
		Parity:     parity,
	})
	if err != nil {
		return nil, err
	}

	return &diskfilter.Detection{
		VG:             vg,
		ID:             diskfilter.PVId{ID: uint64(role)},
		StartSector:    sb.DataOffset,
		HasStartSector: true,
	}, nil
}

func SetLogLevel(level utils.LogLevel) {
	logger.SetLevel(level)
}

func LogLevel() utils.LogLevel {
	return logger.Level()
}
