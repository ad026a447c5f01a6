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
)

const (
	mbrEntryOffset = 446
	mbrEntrySize   = 16
	mbrEntries     = 4

	// Logical partitions are numbered after the primary slots
	msdosFirstLogical = 5
	msdosMaxLogical   = 100
)

// MSDOSPartitionMap reads classic MBR partition tables, including the
// logical partitions chained from an extended partition.
type MSDOSPartitionMap struct{}

type mbrEntry struct {
	Type   byte
	Start  uint32
	Length uint32
}

func (m *MSDOSPartitionMap) Name() string {
	return "msdos"
}

func isExtended(t byte) bool {
	return t == 0x05 || t == 0x0f || t == 0x85
}

func readMBR(d Disk, sector uint64) ([]mbrEntry, bool, error) {
	buf := make([]byte, SectorSize)
	if err := d.ReadSectors(sector, buf); err != nil {
		return nil, false, err
	}
	if buf[510] != 0x55 || buf[511] != 0xaa {
		return nil, false, nil
	}

	entries := make([]mbrEntry, mbrEntries)
	for i := range entries {
		e := buf[mbrEntryOffset+i*mbrEntrySize:]
		entries[i] = mbrEntry{
			Type:   e[4],
			Start:  binary.LittleEndian.Uint32(e[8:12]),
			Length: binary.LittleEndian.Uint32(e[12:16]),
		}
	}
	return entries, true, nil
}

func (m *MSDOSPartitionMap) Iterate(d Disk, hook func(p *Partition) bool) (bool, error) {
	parent := PartitionOf(d)
	base := PartitionStart(d)

	entries, ok, err := readMBR(d, 0)
	if err != nil || !ok {
		return false, err
	}
	// A protective MBR belongs to GPT
	for _, e := range entries {
		if e.Type == 0xee {
			return false, nil
		}
	}

	inside := func(start, length uint64) bool {
		return length != 0 && start < d.Sectors() && length <= d.Sectors()-start
	}

	var extended *mbrEntry
	for i := range entries {
		e := &entries[i]
		if e.Type == 0 {
			continue
		}
		if isExtended(e.Type) {
			if extended == nil {
				extended = e
			}
			continue
		}
		if !inside(uint64(e.Start), uint64(e.Length)) {
			logger.Warning("msdos partition %v of %v is outside of the disk",
				i+1, d.Name())
			continue
		}
		p := &Partition{
			Number: i + 1,
			Start:  base + uint64(e.Start),
			Length: uint64(e.Length),
			Map:    m.Name(),
			Parent: parent,
		}
		if hook(p) {
			return true, nil
		}
	}

	if extended == nil {
		return false, nil
	}

	number := msdosFirstLogical
	ebr := uint64(extended.Start)
	for n := 0; n < msdosMaxLogical; n++ {
		if ebr >= d.Sectors() {
			break
		}
		chain, ok, err := readMBR(d, ebr)
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		logical := chain[0]
		if logical.Type != 0 && inside(ebr+uint64(logical.Start), uint64(logical.Length)) {
			p := &Partition{
				Number: number,
				Start:  base + ebr + uint64(logical.Start),
				Length: uint64(logical.Length),
				Map:    m.Name(),
				Parent: parent,
			}
			number++
			if hook(p) {
				return true, nil
			}
		}
		next := chain[1]
		if !isExtended(next.Type) || next.Start == 0 {
			break
		}
		ebr = uint64(extended.Start) + uint64(next.Start)
	}
	return false, nil
}
