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
	"fmt"
	"testing"

	"github.com/heketi/tests"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter"
)

var testUUID = [16]byte{
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
	0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10,
}

func newRegistry() (*diskfilter.Registry, *disk.MemSource) {
	layer := disk.NewDefaultLayer()
	mem := disk.NewMemSource("mem", disk.DeviceTypeMemory)
	layer.Register(mem)
	r := diskfilter.NewRegistry(layer)
	Register(r)
	return r, mem
}

func newSuperblock(level int32, disks uint32, name string) *Superblock {
	sb := &Superblock{
		Magic:        Magic,
		MajorVersion: 1,
		SetUUID:      testUUID,
		Level:        level,
		Size:         40,
		ChunkSize:    2,
		RaidDisks:    disks,
		MaxDev:       disks,
	}
	copy(sb.SetName[:], name)
	return sb
}

// writeSuperblock puts sb and its role table at sector of d.
func writeSuperblock(d *disk.MemDisk, sector uint64, sb *Superblock, roles ...uint16) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, sb)
	for _, role := range roles {
		binary.Write(&buf, binary.LittleEndian, role)
	}
	copy(d.Data[sector<<disk.SectorBits:], buf.Bytes())
}

// memberDisk returns member i of a two disk array with a version 1.minor
// superblock. Its data sectors are filled with 0x10*(i+1)+k.
func memberDisk(mem *disk.MemSource, minor int, i int, sb Superblock) *disk.MemDisk {
	d := mem.Add(disk.NewMemDisk(fmt.Sprintf("hd%d", i), 64))
	sector, _ := superblockSector(minor, d.Sectors())
	sb.SuperOffset = sector
	sb.DevNumber = uint32(i)
	switch minor {
	case 0:
		sb.DataOffset = 0
	case 1:
		sb.DataOffset = 8
	case 2:
		sb.DataOffset = 16
	}
	for k := uint64(0); k < sb.Size; k++ {
		d.Fill(sb.DataOffset+k, byte(0x10*(i+1))+byte(k))
	}
	writeSuperblock(d, sector, &sb, 0, 1)
	return d
}

func TestSuperblockLayout(t *testing.T) {
	tests.Assert(t, binary.Size(Superblock{}) == SuperblockSize)
	tests.Assert(t, superblockSectors(0) == 1)
	tests.Assert(t, superblockSectors(128) == 1)
	tests.Assert(t, superblockSectors(129) == 2)

	sector, ok := superblockSector(0, 64)
	tests.Assert(t, ok && sector == 48)
	sector, ok = superblockSector(0, 70)
	tests.Assert(t, ok && sector == 48)
	_, ok = superblockSector(0, 8)
	tests.Assert(t, !ok)
}

func TestSuperblockFields(t *testing.T) {
	sb := newSuperblock(1, 2, "host:root")
	tests.Assert(t, sb.Name() == "host:root")
	tests.Assert(t, sb.MemberSize() == 40)
	sb.Size = 0
	sb.DataSize = 50
	tests.Assert(t, sb.MemberSize() == 50)

	for _, c := range []struct {
		layout uint32
		raid10 diskfilter.RAID10Layout
		parity diskfilter.ParityLayout
	}{
		{0, diskfilter.RAID10Layout{}, diskfilter.ParityLayout{}},
		{3, diskfilter.RAID10Layout{Near: 3}, diskfilter.ParityLayout{RightRotation: true, Symmetric: true}},
		{0x102, diskfilter.RAID10Layout{Near: 2, Far: 1}, diskfilter.ParityLayout{Symmetric: true}},
		{0x10201, diskfilter.RAID10Layout{Near: 1, Far: 2, FarOffset: true}, diskfilter.ParityLayout{RightRotation: true}},
	} {
		sb.Layout = c.layout
		raid10, parity := sb.Layouts()
		tests.Assert(t, raid10 == c.raid10, c.layout, raid10)
		tests.Assert(t, parity == c.parity, c.layout, parity)
	}
}

func TestDetectVersions(t *testing.T) {
	for minor := 0; minor < 3; minor++ {
		r, mem := newRegistry()
		sb := newSuperblock(1, 2, "host:root")
		memberDisk(mem, minor, 0, *sb)
		memberDisk(mem, minor, 1, *sb)

		err := r.Scan()
		tests.Assert(t, err == nil, minor, err)

		dev, err := r.OpenDevice("md/root")
		tests.Assert(t, err == nil, minor, err)
		tests.Assert(t, dev.Sectors() == 40)
		tests.Assert(t, r.RAIDName(dev.LV()) == DetectorName)

		buf := make([]byte, 2*disk.SectorSize)
		err = dev.ReadSectors(5, buf)
		tests.Assert(t, err == nil, err)
		tests.Assert(t, buf[0] == 0x15, minor, buf[0])
		tests.Assert(t, buf[disk.SectorSize] == 0x16, minor)

		_, err = r.OpenDevice("mduuid/0123456789abcdeffedcba9876543210")
		tests.Assert(t, err == nil, err)
	}
}

func TestDetectStriped(t *testing.T) {
	r, mem := newRegistry()
	sb := newSuperblock(0, 2, "data")
	memberDisk(mem, 2, 0, *sb)
	memberDisk(mem, 2, 1, *sb)

	dev, err := r.OpenDevice("md/data")
	tests.Assert(t, err == nil, err)
	tests.Assert(t, dev.Sectors() == 80)

	buf := make([]byte, 4*disk.SectorSize)
	err = dev.ReadSectors(0, buf)
	tests.Assert(t, err == nil, err)
	for i, want := range []byte{0x10, 0x11, 0x20, 0x21} {
		tests.Assert(t, buf[i*disk.SectorSize] == want, i, buf[i*disk.SectorSize])
	}
}

func TestDetectMultipath(t *testing.T) {
	r, mem := newRegistry()
	sb := newSuperblock(LevelMultipath, 2, "mp")
	memberDisk(mem, 1, 0, *sb)

	dev, err := r.OpenDevice("md/mp")
	tests.Assert(t, err == nil, err)
	tests.Assert(t, dev.LV().Segments[0].Type == diskfilter.Mirror)
}

func TestDetectIgnored(t *testing.T) {
	r, mem := newRegistry()
	det := &Detector{}

	// nothing there
	d := mem.Add(disk.NewMemDisk("empty", 64))
	found, err := det.Detect(r, d)
	tests.Assert(t, err == nil && found == nil, err)

	tiny := mem.Add(disk.NewMemDisk("tiny", 4))
	found, err = det.Detect(r, tiny)
	tests.Assert(t, err == nil && found == nil, err)

	// superblock found at another offset than recorded
	sb := newSuperblock(1, 2, "moved")
	sb.SuperOffset = 8
	d = mem.Add(disk.NewMemDisk("moved", 64))
	writeSuperblock(d, 0, sb, 0, 1)
	found, err = det.Detect(r, d)
	tests.Assert(t, err == nil && found == nil, err)

	for _, role := range []uint16{RoleSpare, RoleFaulty} {
		sb := newSuperblock(1, 2, "spare")
		d := mem.Add(disk.NewMemDisk(fmt.Sprintf("spare%x", role), 64))
		writeSuperblock(d, 0, sb, role, 1)
		found, err := det.Detect(r, d)
		tests.Assert(t, err == nil && found == nil, role, err)
	}
	tests.Assert(t, len(r.VolumeGroups()) == 0)
}

func TestDetectErrors(t *testing.T) {
	r, mem := newRegistry()
	det := &Detector{}

	for i, c := range []struct {
		change func(sb *Superblock)
		tag    interface{ In(error) bool }
	}{
		{func(sb *Superblock) { sb.MajorVersion = 2 }, disk.ErrNotImplemented},
		{func(sb *Superblock) { sb.Level = 7 }, disk.ErrNotImplemented},
		{func(sb *Superblock) { sb.Level = -1 }, disk.ErrNotImplemented},
		{func(sb *Superblock) { sb.DevNumber = 2 }, disk.ErrBadDevice},
		{func(sb *Superblock) { sb.MaxDev = diskfilter.MaxRAIDMembers + 1 }, disk.ErrBadDevice},
		{func(sb *Superblock) { sb.RaidDisks = 0 }, disk.ErrBadDevice},
		{func(sb *Superblock) { sb.Level = 5; sb.RaidDisks = 1 }, disk.ErrBadFilesystem},
	} {
		sb := newSuperblock(1, 2, "broken")
		c.change(sb)
		d := mem.Add(disk.NewMemDisk(fmt.Sprintf("broken%d", i), 64))
		writeSuperblock(d, 0, sb, 0, 1)

		found, err := det.Detect(r, d)
		tests.Assert(t, found == nil)
		tests.Assert(t, c.tag.In(err), i, err)
	}
	tests.Assert(t, len(r.VolumeGroups()) == 0)
}
