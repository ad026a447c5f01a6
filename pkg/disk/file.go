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
	"io"
	"os"
	"sync"

	"github.com/lpabon/godbc"
)

// FileDevice maps a disk name onto an image file or a block device.
type FileDevice struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Removable bool   `json:"removable"`
}

// FileSource opens images and block devices read only.
type FileSource struct {
	name    string
	typ     DeviceType
	lock    sync.Mutex
	devices []FileDevice
}

func NewFileSource(name string, typ DeviceType) *FileSource {
	return &FileSource{
		name: name,
		typ:  typ,
	}
}

func (s *FileSource) Add(dev FileDevice) {
	godbc.Require(dev.Name != "")
	godbc.Require(dev.Path != "")

	s.lock.Lock()
	defer s.lock.Unlock()
	s.devices = append(s.devices, dev)
}

func (s *FileSource) Name() string {
	return s.name
}

func (s *FileSource) Type() DeviceType {
	return s.typ
}

func (s *FileSource) Devices() []FileDevice {
	s.lock.Lock()
	defer s.lock.Unlock()

	devices := make([]FileDevice, len(s.devices))
	copy(devices, s.devices)
	return devices
}

func (s *FileSource) Iterate(pull Pull, hook func(name string) bool) bool {
	for _, dev := range s.Devices() {
		if (pull == PullNone && dev.Removable) ||
			(pull == PullRemovable && !dev.Removable) ||
			pull >= PullRescan {
			continue
		}
		if hook(dev.Name) {
			return true
		}
	}
	return false
}

func (s *FileSource) Open(name string) (Disk, error) {
	for i, dev := range s.Devices() {
		if dev.Name != name {
			continue
		}
		f, err := os.Open(dev.Path)
		if err != nil {
			return nil, ErrUnknownDevice.Errorf("cannot open `%v': %v", dev.Path, err)
		}
		size, err := fileSize(f)
		if err != nil {
			f.Close()
			return nil, ErrBadDevice.Errorf("cannot size `%v': %v", dev.Path, err)
		}
		return &fileDisk{
			name:    name,
			id:      uint64(i + 1),
			typ:     s.typ,
			file:    f,
			sectors: size >> SectorBits,
		}, nil
	}
	return nil, ErrUnknownDevice.Errorf("disk `%v' not found", name)
}

func fileSize(f *os.File) (uint64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if fi.Mode()&os.ModeDevice != 0 {
		return blockDeviceSize(f)
	}
	return uint64(fi.Size()), nil
}

type fileDisk struct {
	name    string
	id      uint64
	typ     DeviceType
	file    *os.File
	sectors uint64
}

func (d *fileDisk) Name() string {
	return d.name
}

func (d *fileDisk) Type() DeviceType {
	return d.typ
}

func (d *fileDisk) ID() uint64 {
	return d.id
}

func (d *fileDisk) Sectors() uint64 {
	return d.sectors
}

func (d *fileDisk) ReadSectors(sector uint64, buf []byte) error {
	if err := CheckRange(d, sector, buf); err != nil {
		return err
	}
	n, err := d.file.ReadAt(buf, int64(sector<<SectorBits))
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	if err != nil {
		return ErrReadError.Errorf("failure reading sector 0x%x from `%v': %v",
			sector, d.name, err)
	}
	return nil
}

func (d *fileDisk) Close() error {
	return d.file.Close()
}
