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
	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/utils"
)

// Device is an opened logical volume. It is read only.
type Device struct {
	r    *Registry
	lv   *LogicalVolume
	name string
}

func (r *Registry) Name() string {
	return SourceName
}

func (r *Registry) Type() disk.DeviceType {
	return disk.DeviceTypeDiskfilter
}

// Iterate lists the visible volumes. The rescan pass runs a full scan
// first and only lists the volumes it made readable.
func (r *Registry) Iterate(pull disk.Pull, hook func(name string) bool) bool {
	since := uint64(0)
	if pull == disk.PullRescan {
		since = r.insCount + 1
		if err := r.scanDevices(""); err != nil {
			logger.Err(err)
		}
	}
	if pull != disk.PullNone && pull != disk.PullRescan {
		return false
	}

	for _, vg := range r.vgs {
		for _, lv := range vg.LVs {
			if lv.Visible && lv.FullName != "" && lv.BecameReadableAt >= since {
				if hook(lv.FullName) {
					return true
				}
			}
		}
	}
	return false
}

// Open finds the named volume, scanning the disks once when it is not
// known yet.
func (r *Registry) Open(name string) (disk.Disk, error) {
	dev, err := r.OpenDevice(name)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

func (r *Registry) OpenDevice(name string) (*Device, error) {
	if !utils.IsDiskfilterName(name) {
		return nil, disk.ErrUnknownDevice.Errorf("unknown DISKFILTER device %v", name)
	}

	lv := r.Lookup(name)
	if lv == nil {
		if err := r.scanDevices(name); err != nil {
			logger.Err(err)
		}
		lv = r.Lookup(name)
	}
	if lv == nil {
		return nil, disk.ErrUnknownDevice.Errorf("unknown DISKFILTER device %v", name)
	}

	return &Device{
		r:    r,
		lv:   lv,
		name: name,
	}, nil
}

func (d *Device) Name() string {
	return d.name
}

func (d *Device) Type() disk.DeviceType {
	return disk.DeviceTypeDiskfilter
}

func (d *Device) ID() uint64 {
	return uint64(d.lv.Number)
}

func (d *Device) Sectors() uint64 {
	return d.lv.Size
}

func (d *Device) LV() *LogicalVolume {
	return d.lv
}

func (d *Device) ReadSectors(sector uint64, buf []byte) error {
	if err := disk.CheckRange(d, sector, buf); err != nil {
		return err
	}

	d.r.stats.Reads++
	err := d.r.ReadLV(d.lv, sector, buf)
	if err != nil {
		d.r.stats.ReadErrors++
	}
	return err
}

func (d *Device) WriteSectors(sector uint64, buf []byte) error {
	return disk.ErrNotImplemented.Errorf("diskfilter writes are not supported")
}

func (d *Device) Close() error {
	return nil
}
