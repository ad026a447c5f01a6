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
	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/utils"
)

// Detection is what a detector reports for a disk carrying one of its
// superblocks.
type Detection struct {
	// VG is the group the disk is a member of. A group the registry
	// does not know yet is registered on insertion.
	VG *VolumeGroup
	ID PVId
	// StartSector, when HasStartSector is set, replaces the offset of
	// the member data inside the disk.
	StartSector    uint64
	HasStartSector bool
}

// Detector recognizes the on-disk metadata of one RAID or volume
// manager format. Detect returns nil and no error for disks which do
// not carry its metadata.
type Detector interface {
	Name() string
	Detect(r *Registry, d disk.Disk) (*Detection, error)
}

// Scan looks for members on every disk of the layer, then inside the
// volumes that became readable.
func (r *Registry) Scan() error {
	return r.scanDevices("")
}

// scanDevices walks the disk sources once per pull pass. When looking
// for arname, it stops as soon as that volume is fully readable.
func (r *Registry) scanDevices(arname string) error {
	r.stats.Scans++

	found := func() bool {
		return arname != "" && r.LVReadable(r.Lookup(arname), true)
	}

	for pull := disk.PullNone; pull < disk.PullMax; pull++ {
		// crypto devices first
		for _, src := range r.layer.Sources() {
			if src.Type() != disk.DeviceTypeCrypto {
				continue
			}
			if src.Iterate(pull, r.scanHook) || found() {
				return nil
			}
			break
		}

		for _, src := range r.layer.Sources() {
			if src.Type() == disk.DeviceTypeDiskfilter {
				continue
			}
			if src.Iterate(pull, r.scanHook) || found() {
				return nil
			}
		}
	}

	needRescan := true
	for depth := 0; needRescan && depth < MaxScanDepth; depth++ {
		needRescan = r.scanReadableLVs()
	}
	if needRescan {
		return disk.ErrUnknownDevice.Errorf("DISKFILTER scan depth exceeded")
	}
	return nil
}

// scanReadableLVs scans the volumes that became readable and were not
// looked into yet. It returns true if there was any.
func (r *Registry) scanReadableLVs() bool {
	scanned := false
	// groups registered while scanning wait for the next round
	for _, vg := range r.vgs {
		for _, lv := range vg.LVs {
			if !lv.Scanned && lv.FullName != "" && lv.BecameReadableAt != 0 {
				r.scanDisk(lv.FullName, true)
				lv.Scanned = true
				scanned = true
			}
		}
	}
	return scanned
}

func (r *Registry) scanHook(name string) bool {
	r.scanDisk(name, false)
	return false
}

// scanDisk runs the detectors on a disk and on each of its partitions.
// Names served by the registry itself are only accepted on request.
func (r *Registry) scanDisk(name string, acceptDiskfilter bool) {
	if !acceptDiskfilter && utils.IsDiskfilterName(name) {
		return
	}
	if r.scanDepth > MaxScanDepth {
		return
	}

	r.scanDepth++
	defer func() {
		r.scanDepth--
	}()

	d, err := r.layer.Open(name)
	if err != nil {
		logger.Debug("unable to open %v: %v", name, err)
		return
	}
	defer d.Close()

	r.scanMember(name, d)
	r.layer.IteratePartitions(d, func(p disk.Disk) bool {
		r.scanMember(name, p)
		return false
	})
}

// attached returns the physical volume already backed by d, if any.
func (r *Registry) attached(d disk.Disk) (*PhysicalVolume, *VolumeGroup) {
	for _, vg := range r.vgs {
		for _, pv := range vg.PVs {
			if pv.Disk != nil &&
				pv.Disk.ID() == d.ID() &&
				pv.Disk.Type() == d.Type() &&
				pv.PartStart == disk.PartitionStart(d) &&
				pv.PartSize == d.Sectors() {
				return pv, vg
			}
		}
	}
	return nil, nil
}

func (r *Registry) scanMember(name string, d disk.Disk) {
	logger.Debug("Scanning for DISKFILTER devices on disk %v", name)

	if pv, _ := r.attached(d); pv != nil {
		return
	}

	for _, detector := range r.detectors {
		found, err := detector.Detect(r, d)
		if err == nil && found != nil {
			err = r.insert(d, found, detector.Name())
			if err == nil {
				return
			}
		}
		// out of range reads mostly mean the format is not there
		if err != nil && !disk.ErrOutOfRange.In(err) {
			logger.LogError("%v on %v: %v", detector.Name(), d.Name(), err)
		}
	}
}

func (r *Registry) insert(d disk.Disk, found *Detection, driver string) error {
	godbc.Require(found.VG != nil)

	found.VG.Driver = driver
	return r.InsertMember(d, found)
}

// InsertMember attaches d to the physical volume of found.VG matching
// found.ID, registering the group first if needed. Members already
// attached through a disk at least as large are left alone. Volumes of
// the group reaching readability for the first time are stamped with
// the next insertion count.
func (r *Registry) InsertMember(d disk.Disk, found *Detection) error {
	godbc.Require(found != nil && found.VG != nil)

	vg := found.VG
	if !r.registered(vg) {
		if err := r.Register(vg); err != nil {
			return err
		}
	}
	start := disk.PartitionStart(d)
	size := d.Sectors()

	logger.Debug("Inserting %v (+%v,%v) into %v (%v)",
		d.Name(), start, size, vg.Name, vg.Driver)

	pv := vg.PVById(found.ID)
	if pv == nil {
		logger.Debug("%v is not a known member of %v", found.ID, vg.Name)
		return nil
	}
	if pv.Disk != nil && pv.PartSize >= size {
		return nil
	}

	whole, err := r.layer.Open(disk.WholeDisk(d).Name())
	if err != nil {
		return err
	}
	if pv.Disk != nil {
		pv.Disk.Close()
	}
	pv.Disk = whole

	pv.StartSector -= pv.PartStart
	pv.PartStart = start
	pv.PartSize = size
	pv.Partmaps = disk.PartitionMaps(d)
	if found.HasStartSector {
		pv.StartSector = found.StartSector
	}
	pv.StartSector += pv.PartStart

	for _, lv := range vg.LVs {
		if lv.BecameReadableAt == 0 && lv.FullName != "" && r.LVReadable(lv, false) {
			r.insCount++
			lv.BecameReadableAt = r.insCount
		}
	}
	return nil
}
