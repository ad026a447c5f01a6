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
	"encoding/binary"
	"testing"

	"github.com/heketi/tests"
)

func writeMBR(d *MemDisk, sector uint64, entries ...mbrEntry) {
	buf := d.Data[sector<<SectorBits : (sector+1)<<SectorBits]
	for i, e := range entries {
		b := buf[mbrEntryOffset+i*mbrEntrySize:]
		b[4] = e.Type
		binary.LittleEndian.PutUint32(b[8:12], e.Start)
		binary.LittleEndian.PutUint32(b[12:16], e.Length)
	}
	buf[510] = 0x55
	buf[511] = 0xaa
}

func listPartitions(t *testing.T, l *Layer, d Disk) []Disk {
	var parts []Disk
	l.IteratePartitions(d, func(p Disk) bool {
		parts = append(parts, p)
		return false
	})
	return parts
}

func TestMSDOSNoSignature(t *testing.T) {
	d := NewMemDisk("hd0", 64)
	parts := listPartitions(t, NewDefaultLayer(), d)
	tests.Assert(t, len(parts) == 0)
}

func TestMSDOSPrimary(t *testing.T) {
	d := NewMemDisk("hd0", 64)
	writeMBR(d, 0,
		mbrEntry{Type: 0x83, Start: 2, Length: 10},
		mbrEntry{},
		mbrEntry{Type: 0xfd, Start: 20, Length: 30},
		// does not fit on the disk
		mbrEntry{Type: 0x83, Start: 60, Length: 10})
	d.Fill(20, 0x77)

	parts := listPartitions(t, NewDefaultLayer(), d)
	tests.Assert(t, len(parts) == 2, len(parts))

	tests.Assert(t, parts[0].Name() == "hd0,msdos1", parts[0].Name())
	tests.Assert(t, parts[0].Sectors() == 10)
	tests.Assert(t, PartitionStart(parts[0]) == 2)

	tests.Assert(t, parts[1].Name() == "hd0,msdos3", parts[1].Name())
	tests.Assert(t, PartitionStart(parts[1]) == 20)
	tests.Assert(t, WholeDisk(parts[1]) == Disk(d))
	tests.Assert(t, PartitionMaps(parts[1])[0] == "msdos")

	buf := make([]byte, SectorSize)
	err := parts[1].ReadSectors(0, buf)
	tests.Assert(t, err == nil, err)
	tests.Assert(t, buf[0] == 0x77)

	err = parts[1].ReadSectors(30, buf)
	tests.Assert(t, ErrOutOfRange.In(err), err)
}

func TestMSDOSLogical(t *testing.T) {
	d := NewMemDisk("hd0", 128)
	writeMBR(d, 0,
		mbrEntry{Type: 0x83, Start: 1, Length: 9},
		mbrEntry{Type: 0x05, Start: 10, Length: 100})
	// first EBR at 10: logical at 10+2, next EBR at 10+40
	writeMBR(d, 10,
		mbrEntry{Type: 0x83, Start: 2, Length: 20},
		mbrEntry{Type: 0x05, Start: 40, Length: 60})
	writeMBR(d, 50,
		mbrEntry{Type: 0x83, Start: 1, Length: 30})

	var parts []Disk
	m := &MSDOSPartitionMap{}
	_, err := m.Iterate(d, func(p *Partition) bool {
		parts = append(parts, NewPartitionDisk(d, p))
		return false
	})
	tests.Assert(t, err == nil, err)
	tests.Assert(t, len(parts) == 3, len(parts))
	tests.Assert(t, parts[1].Name() == "hd0,msdos5")
	tests.Assert(t, PartitionStart(parts[1]) == 12)
	tests.Assert(t, parts[2].Name() == "hd0,msdos6")
	tests.Assert(t, PartitionStart(parts[2]) == 51)
	tests.Assert(t, parts[2].Sectors() == 30)
}

func TestMSDOSLoopingChain(t *testing.T) {
	d := NewMemDisk("hd0", 64)
	writeMBR(d, 0, mbrEntry{Type: 0x0f, Start: 8, Length: 50})
	// the EBR points back to itself
	writeMBR(d, 8,
		mbrEntry{Type: 0x83, Start: 1, Length: 2},
		mbrEntry{Type: 0x05, Start: 1, Length: 10})
	writeMBR(d, 9,
		mbrEntry{Type: 0x83, Start: 1, Length: 2},
		mbrEntry{Type: 0x05, Start: 1, Length: 10})

	count := 0
	m := &MSDOSPartitionMap{}
	_, err := m.Iterate(d, func(p *Partition) bool {
		count++
		return false
	})
	tests.Assert(t, err == nil, err)
	tests.Assert(t, count == msdosMaxLogical, count)
}

func TestMSDOSProtective(t *testing.T) {
	d := NewMemDisk("hd0", 64)
	writeMBR(d, 0, mbrEntry{Type: 0xee, Start: 1, Length: 63})
	tests.Assert(t, len(listPartitions(t, NewDefaultLayer(), d)) == 0)
}
