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
	"sync"
	"sync/atomic"

	"github.com/lpabon/godbc"
)

// MemDisk is a disk held in memory. Setting Fail makes every read
// return ErrReadError, which is how member failures are simulated.
type MemDisk struct {
	Data      []byte
	Fail      bool
	Removable bool

	name string
	id   uint64
	typ  DeviceType
}

func NewMemDisk(name string, sectors uint64) *MemDisk {
	return &MemDisk{
		Data: make([]byte, sectors<<SectorBits),
		name: name,
		typ:  DeviceTypeMemory,
	}
}

func (d *MemDisk) Name() string {
	return d.name
}

func (d *MemDisk) Type() DeviceType {
	return d.typ
}

func (d *MemDisk) ID() uint64 {
	return d.id
}

func (d *MemDisk) Sectors() uint64 {
	return uint64(len(d.Data)) >> SectorBits
}

func (d *MemDisk) ReadSectors(sector uint64, buf []byte) error {
	if d.Fail {
		return ErrReadError.Errorf("failure reading sector 0x%x from `%v'", sector, d.name)
	}
	if err := CheckRange(d, sector, buf); err != nil {
		return err
	}
	copy(buf, d.Data[sector<<SectorBits:])
	return nil
}

func (d *MemDisk) WriteSectors(sector uint64, buf []byte) error {
	if err := CheckRange(d, sector, buf); err != nil {
		return err
	}
	copy(d.Data[sector<<SectorBits:], buf)
	return nil
}

// Fill sets every byte of the given sector to b.
func (d *MemDisk) Fill(sector uint64, b byte) {
	s := d.Data[sector<<SectorBits : (sector+1)<<SectorBits]
	for i := range s {
		s[i] = b
	}
}

// Close is a no-op; memory disks live as long as their source.
func (d *MemDisk) Close() error {
	return nil
}

var memDiskIDs uint64

// MemSource serves MemDisks by name. Non removable disks are listed
// on the first pass, removable ones on the second.
type MemSource struct {
	name  string
	typ   DeviceType
	lock  sync.Mutex
	disks []*MemDisk
}

func NewMemSource(name string, typ DeviceType) *MemSource {
	return &MemSource{
		name: name,
		typ:  typ,
	}
}

// Add attaches d to the source. The disk takes the type of the source
// and a process unique id.
func (s *MemSource) Add(d *MemDisk) *MemDisk {
	godbc.Require(d != nil)

	s.lock.Lock()
	defer s.lock.Unlock()

	d.typ = s.typ
	d.id = atomic.AddUint64(&memDiskIDs, 1)
	s.disks = append(s.disks, d)
	return d
}

// Remove detaches the named disk. Handles already opened stay usable.
func (s *MemSource) Remove(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i, d := range s.disks {
		if d.name == name {
			s.disks = append(s.disks[:i], s.disks[i+1:]...)
			return
		}
	}
}

func (s *MemSource) Name() string {
	return s.name
}

func (s *MemSource) Type() DeviceType {
	return s.typ
}

func (s *MemSource) Iterate(pull Pull, hook func(name string) bool) bool {
	s.lock.Lock()
	disks := make([]*MemDisk, len(s.disks))
	copy(disks, s.disks)
	s.lock.Unlock()

	for _, d := range disks {
		switch {
		case pull == PullNone && !d.Removable:
		case pull == PullRemovable && d.Removable:
		default:
			continue
		}
		if hook(d.name) {
			return true
		}
	}
	return false
}

func (s *MemSource) Open(name string) (Disk, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, d := range s.disks {
		if d.name == name {
			return d, nil
		}
	}
	return nil, ErrUnknownDevice.Errorf("disk `%v' not found", name)
}
