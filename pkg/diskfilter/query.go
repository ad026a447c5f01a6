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
	"fmt"
	"io"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/utils"
)

func firstMissing(vg *VolumeGroup) *PhysicalVolume {
	for _, pv := range vg.PVs {
		if pv.Disk == nil {
			return pv
		}
	}
	return nil
}

// Members returns the distinct disks backing the physical volumes of
// lv. Missing members are looked for on every disk first; those still
// missing are reported in the log and left out.
func (r *Registry) Members(lv *LogicalVolume) []disk.Disk {
	vg := lv.VG

	if firstMissing(vg) != nil {
	passes:
		for pull := disk.PullNone; pull < disk.PullMax; pull++ {
			for _, src := range r.layer.Sources() {
				if src.Type() == disk.DeviceTypeDiskfilter {
					continue
				}
				src.Iterate(pull, r.scanHook)
				if firstMissing(vg) == nil {
					break passes
				}
			}
		}
	}

rescan:
	for _, group := range r.vgs {
		for _, other := range group.LVs {
			if firstMissing(vg) == nil {
				break rescan
			}
			if !other.Scanned && other.FullName != "" && other.BecameReadableAt != 0 {
				r.scanDisk(other.FullName, true)
				other.Scanned = true
			}
		}
	}

	var members []disk.Disk
	seen := make(map[string]bool)
	for _, seg := range lv.Segments {
		for _, node := range seg.Nodes {
			pv := node.PV
			if pv == nil {
				continue
			}
			if pv.Disk == nil {
				logger.Warning("Couldn't find physical volume `%v'", pv.Name)
				continue
			}
			if seen[pv.Disk.Name()] {
				continue
			}
			seen[pv.Disk.Name()] = true
			members = append(members, pv.Disk)
		}
	}
	return members
}

// PartitionMaps lists the partition map names the members of the
// group of lv sit under.
func (r *Registry) PartitionMaps(lv *LogicalVolume) []string {
	var maps []string
	for _, pv := range lv.VG.PVs {
		if pv.Disk == nil {
			logger.Warning("Couldn't find physical volume `%v'", pv.Name)
			continue
		}
		maps = append(maps, pv.Partmaps...)
	}
	return maps
}

// RAIDName returns the name of the detector which found the group of
// lv.
func (r *Registry) RAIDName(lv *LogicalVolume) string {
	return lv.VG.Driver
}

// PVFromDisk scans d and returns the physical volume it backs.
func (r *Registry) PVFromDisk(d disk.Disk) (*PhysicalVolume, *VolumeGroup) {
	r.scanDisk(d.Name(), true)
	return r.attached(d)
}

func (r *Registry) checkPVsEncrypted(lv *LogicalVolume) (int, error) {
	count := 0
	for _, pv := range lv.VG.PVs {
		count++
		if pv.Disk == nil {
			// partially activated group
			return count, disk.ErrTestFailure.Errorf("physical volume %v not found", pv.Name)
		}
		if pv.Disk.Type() != disk.DeviceTypeCrypto {
			return count, disk.ErrTestFailure.Errorf("physical volume %v is not encrypted", pv.Name)
		}
	}
	return count, nil
}

// CryptoCheck takes "[--quiet] (NAME)" and checks that every physical
// volume of the group of NAME is an encrypted device. It returns the
// number of physical volumes examined, and ErrTestFailure when one is
// missing or not encrypted.
func (r *Registry) CryptoCheck(w io.Writer, args ...string) (int, error) {
	quiet := false
	if len(args) == 2 {
		if args[0] != "--quiet" {
			return 0, disk.ErrBadArgument.Errorf("unrecognized option: %v", args[0])
		}
		quiet = true
		args = args[1:]
	}
	if len(args) != 1 {
		return 0, disk.ErrBadArgument.Errorf("disk name expected")
	}

	name, ok := utils.ParenthesizedName(args[0])
	if !ok {
		return 0, disk.ErrUnknownDevice.Errorf("invalid disk: %v", args[0])
	}
	if !utils.IsDiskfilterName(name) {
		return 0, disk.ErrUnknownDevice.Errorf("unrecognized disk: %v", name)
	}

	dev, err := r.OpenDevice(name)
	if err != nil {
		return 0, disk.ErrUnknownDevice.Errorf("no such disk: %v", name)
	}
	defer dev.Close()

	count, err := r.checkPVsEncrypted(dev.LV())
	if !quiet {
		un, plural := "", ""
		if err != nil {
			un = "un"
		}
		if count > 1 {
			plural = "s"
		}
		fmt.Fprintf(w, "%s is %sencrypted (%d pv%s examined)\n", name, un, count, plural)
	}
	return count, err
}
