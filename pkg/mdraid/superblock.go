//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package mdraid

import (
	"bytes"
	"encoding/binary"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter"
)

const (
	Magic = 0xa92b4efc

	// Fixed part of a version 1 superblock. The role table follows.
	SuperblockSize = 256

	LevelMultipath = -4

	RoleFaulty = 0xfffe
	RoleSpare  = 0xffff
)

// Superblock is the on-disk version 1 md superblock, little endian.
type Superblock struct {
	Magic            uint32
	MajorVersion     uint32
	FeatureMap       uint32
	Pad0             uint32
	SetUUID          [16]byte
	SetName          [32]byte
	Ctime            uint64
	Level            int32
	Layout           uint32
	Size             uint64
	ChunkSize        uint32
	RaidDisks        uint32
	BitmapOffset     uint32
	NewLevel         uint32
	ReshapePosition  uint64
	DeltaDisks       uint32
	NewLayout        uint32
	NewChunk         uint32
	NewOffset        uint32
	DataOffset       uint64
	DataSize         uint64
	SuperOffset      uint64
	RecoveryOffset   uint64
	DevNumber        uint32
	CntCorrectedRead uint32
	DeviceUUID       [16]byte
	DevFlags         uint8
	BblogShift       uint8
	BblogSize        uint16
	BblogOffset      uint32
	Utime            uint64
	Events           uint64
	ResyncOffset     uint64
	SbCsum           uint32
	MaxDev           uint32
	Pad3             [32]byte
}

// Name returns the array name, "homehost:name" in most cases.
func (sb *Superblock) Name() string {
	return string(bytes.TrimRight(sb.SetName[:], "\x00"))
}

// MemberSize returns the sectors of data each member contributes.
func (sb *Superblock) MemberSize() uint64 {
	if sb.Size != 0 {
		return sb.Size
	}
	return sb.DataSize
}

// Layouts decodes the layout field for the level of the array.
func (sb *Superblock) Layouts() (diskfilter.RAID10Layout, diskfilter.ParityLayout) {
	l := sb.Layout
	return diskfilter.RAID10Layout{
			Near:      int(l & 0xff),
			Far:       int((l >> 8) & 0xff),
			FarOffset: l>>16 != 0,
		}, diskfilter.ParityLayout{
			RightRotation: l&1 != 0,
			Symmetric:     l&2 != 0,
		}
}

// superblockSectors is the number of sectors to read to get the role
// table of maxDev devices.
func superblockSectors(maxDev uint32) uint64 {
	size := uint64(SuperblockSize) + 2*uint64(maxDev)
	return (size + disk.SectorSize - 1) >> disk.SectorBits
}

func readSuperblock(d disk.Disk, sector uint64) (*Superblock, error) {
	buf := make([]byte, disk.SectorSize)
	if err := d.ReadSectors(sector, buf); err != nil {
		return nil, err
	}

	sb := &Superblock{}
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, sb)
	if err != nil {
		return nil, err
	}
	return sb, nil
}

// readRole returns the role of the device the superblock at sector was
// read from.
func readRole(d disk.Disk, sector uint64, sb *Superblock) (uint16, error) {
	buf := make([]byte, superblockSectors(sb.MaxDev)<<disk.SectorBits)
	if err := d.ReadSectors(sector, buf); err != nil {
		return 0, err
	}
	off := SuperblockSize + 2*int(sb.DevNumber)
	return binary.LittleEndian.Uint16(buf[off:]), nil
}
