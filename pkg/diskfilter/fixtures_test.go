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
	"fmt"
	"testing"

	"github.com/heketi/tests"

	"github.com/heketi/diskfilter/pkg/disk"
)

const testMagic = "DFTEST01"

type testEnv struct {
	layer  *disk.Layer
	mem    *disk.MemSource
	crypto *disk.MemSource
	r      *Registry
}

func newTestEnv() *testEnv {
	env := &testEnv{
		layer:  disk.NewDefaultLayer(),
		mem:    disk.NewMemSource("mem", disk.DeviceTypeMemory),
		crypto: disk.NewMemSource("crypto", disk.DeviceTypeCrypto),
	}
	env.layer.Register(env.mem)
	env.layer.Register(env.crypto)
	env.r = NewRegistry(env.layer)
	return env
}

// newGroup builds a single volume group with one volume made of one
// segment over count physical volumes.
func newGroup(name string, typ RAIDType, count int, stripe, memberSize uint64) *VolumeGroup {
	vg := &VolumeGroup{
		UUID:       []byte(name),
		Name:       name,
		ExtentSize: 1,
	}
	seg := &Segment{
		Type:       typ,
		StripeSize: stripe,
		MemberSize: memberSize,
	}
	for i := 0; i < count; i++ {
		pv := &PhysicalVolume{
			Name: fmt.Sprintf("%v-pv%d", name, i),
			ID:   PVId{ID: uint64(i)},
		}
		vg.PVs = append(vg.PVs, pv)
		seg.Nodes = append(seg.Nodes, &Node{Name: pv.Name, PV: pv})
	}

	var size uint64
	switch typ {
	case Mirror:
		size = memberSize
	case RAID10:
		size = memberSize * uint64(count) / 2
	default:
		size = memberSize * uint64(count-typ.ParityCount())
	}
	seg.ExtentCount = size

	vg.LVs = []*LogicalVolume{{
		Name:     name,
		FullName: name,
		Size:     size,
		Visible:  true,
		Segments: []*Segment{seg},
	}}
	return vg
}

// attach inserts the memory disk d as member i of vg.
func (env *testEnv) attach(t *testing.T, vg *VolumeGroup, i int, d *disk.MemDisk) {
	err := env.r.InsertMember(d, &Detection{VG: vg, ID: PVId{ID: uint64(i)}})
	tests.Assert(t, err == nil, err)
}

// members creates count memory disks of the given size and attaches
// them all to vg.
func (env *testEnv) members(t *testing.T, vg *VolumeGroup, count int, sectors uint64) []*disk.MemDisk {
	var disks []*disk.MemDisk
	for i := 0; i < count; i++ {
		d := env.mem.Add(disk.NewMemDisk(fmt.Sprintf("disk-%v-%d", vg.Name, i), sectors))
		env.attach(t, vg, i, d)
		disks = append(disks, d)
	}
	return disks
}

// xorRecoverer rebuilds a failed member from all the others.
var xorRecoverer = RecovererFunc(func(rd NodeReader, req *RecoveryRequest) error {
	for i := range req.Buf {
		req.Buf[i] = 0
	}
	tmp := make([]byte, len(req.Buf))
	for i, node := range req.Segment.Nodes {
		if i == req.Failed {
			continue
		}
		if err := rd.ReadNode(node, req.Sector, tmp); err != nil {
			return err
		}
		for j := range tmp {
			req.Buf[j] ^= tmp[j]
		}
	}
	return nil
})

// testDetector recognizes a small superblock in the first sector of a
// disk and builds arrays with MakeRAID. Member data starts on the next
// sector.
type testDetector struct {
	calls int
}

func (t *testDetector) Name() string {
	return "testraid"
}

func (t *testDetector) Detect(r *Registry, d disk.Disk) (*Detection, error) {
	t.calls++
	if d.Sectors() < 2 {
		return nil, nil
	}
	buf := make([]byte, disk.SectorSize)
	if err := d.ReadSectors(0, buf); err != nil {
		return nil, err
	}
	if string(buf[:8]) != testMagic {
		return nil, nil
	}

	info := &ArrayInfo{
		UUID:       append([]byte(nil), buf[8:12]...),
		Members:    int(buf[13]),
		Level:      RAIDType(buf[14]),
		StripeSize: uint64(buf[15]),
		MemberSize: d.Sectors() - 1,
		Name:       string(bytes.TrimRight(buf[16:48], "\x00")),
		Parity:     ParityLayout{Symmetric: true},
		RAID10:     RAID10Layout{Near: 2, Far: 1},
	}
	vg, err := r.MakeRAID(info)
	if err != nil {
		return nil, err
	}
	return &Detection{
		VG:             vg,
		ID:             PVId{ID: uint64(buf[12])},
		StartSector:    1,
		HasStartSector: true,
	}, nil
}

func writeTestSuperblock(d *disk.MemDisk, sector uint64, uuid string, member, members int,
	level RAIDType, stripe int, name string) {
	buf := d.Data[sector<<disk.SectorBits : (sector+1)<<disk.SectorBits]
	copy(buf, testMagic)
	copy(buf[8:12], uuid)
	buf[12] = byte(member)
	buf[13] = byte(members)
	buf[14] = byte(level)
	buf[15] = byte(stripe)
	copy(buf[16:48], name)
}

func readAll(t *testing.T, d disk.Disk) []byte {
	buf := make([]byte, d.Sectors()<<disk.SectorBits)
	err := d.ReadSectors(0, buf)
	tests.Assert(t, err == nil, err)
	return buf
}

func sectorOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, disk.SectorSize)
}
