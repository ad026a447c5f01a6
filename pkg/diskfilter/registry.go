//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

// Package diskfilter assembles RAID and LVM volumes out of the member
// disks found by its detectors, and serves reads of those volumes as
// plain disks.
package diskfilter

import (
	"bytes"
	"fmt"

	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/errtag"
	"github.com/heketi/diskfilter/pkg/utils"
)

const (
	// DefaultStripeSize is given to layouts that do not use one
	DefaultStripeSize = 64

	// MaxScanDepth bounds both nested disk scans and rescan rounds
	MaxScanDepth = 100

	SourceName = "diskfilter"
)

var (
	logger = utils.NewLogger("[diskfilter]", utils.LEVEL_INFO)

	ErrModuleMissing = errtag.NewTag("Required module missing")
)

// Stats are counters of the work done by a registry.
type Stats struct {
	Reads      uint64
	ReadErrors uint64
	Recoveries uint64
	Scans      uint64
}

// Registry holds every volume group found so far. All of its methods
// must be called from one goroutine at a time.
type Registry struct {
	layer      *disk.Layer
	vgs        []*VolumeGroup
	lvNum      int
	insCount   uint64
	detectors  []Detector
	recoverers map[RAIDType]Recoverer
	scanDepth  int
	stats      Stats
}

// NewRegistry returns an empty registry and registers it as a disk
// source of layer, so that its volumes can be opened by name.
func NewRegistry(layer *disk.Layer) *Registry {
	godbc.Require(layer != nil)

	r := &Registry{
		layer:      layer,
		recoverers: make(map[RAIDType]Recoverer),
	}
	layer.Register(r)
	return r
}

func SetLogLevel(level utils.LogLevel) {
	logger.SetLevel(level)
}

func LogLevel() utils.LogLevel {
	return logger.Level()
}

func (r *Registry) Layer() *disk.Layer {
	return r.layer
}

func (r *Registry) RegisterDetector(d Detector) {
	godbc.Require(d != nil)
	r.detectors = append(r.detectors, d)
}

// RegisterRecoverer installs the reconstruction strategy of a parity
// level. RAID4 shares the RAID5 strategy.
func (r *Registry) RegisterRecoverer(level RAIDType, rec Recoverer) {
	godbc.Require(level == RAID5 || level == RAID6, level)
	godbc.Require(rec != nil)
	r.recoverers[level] = rec
}

func (r *Registry) VolumeGroups() []*VolumeGroup {
	return r.vgs
}

func (r *Registry) Stats() Stats {
	return r.stats
}

// InsertionCount is the stamp given to the last volume that became
// readable.
func (r *Registry) InsertionCount() uint64 {
	return r.insCount
}

func (r *Registry) VGByUUID(uuid []byte) *VolumeGroup {
	for _, vg := range r.vgs {
		if bytes.Equal(vg.UUID, uuid) {
			return vg
		}
	}
	return nil
}

func (r *Registry) registered(vg *VolumeGroup) bool {
	for _, v := range r.vgs {
		if v == vg {
			return true
		}
	}
	return false
}

// Lookup returns the first readable volume whose full name or id name
// is name.
func (r *Registry) Lookup(name string) *LogicalVolume {
	for _, vg := range r.vgs {
		for _, lv := range vg.LVs {
			if (lv.FullName != "" && lv.FullName == name) ||
				(lv.IDName != "" && lv.IDName == name) {
				if r.LVReadable(lv, false) {
					return lv
				}
			}
		}
	}
	return nil
}

// Register validates vg and adds it to the registry. Layouts without a
// stripe size get DefaultStripeSize. Nothing is registered, and vg is
// left untouched, when any volume of the group is invalid.
func (r *Registry) Register(vg *VolumeGroup) error {
	godbc.Require(vg != nil)

	logger.Debug("Found array %v", vg.Name)

	for _, lv := range vg.LVs {
		if err := validateLV(lv, vg, map[*LogicalVolume]bool{}); err != nil {
			return err
		}
		if err := validateCoverage(lv, vg); err != nil {
			return err
		}
	}

	for _, lv := range vg.LVs {
		if lv.VG == nil {
			lv.VG = vg
		}
		for _, seg := range lv.Segments {
			seg.StripeSize = effectiveStripe(seg)
		}
	}

	used := make(map[string]bool)
	for _, v := range r.vgs {
		for _, lv := range v.LVs {
			if lv.FullName != "" {
				used[lv.FullName] = true
			}
		}
	}
	for _, lv := range vg.LVs {
		lv.Number = r.lvNum
		r.lvNum++

		if lv.FullName == "" {
			continue
		}
		if used[lv.FullName] {
			for n := 1; ; n++ {
				name := fmt.Sprintf("%v_%d", lv.FullName, n)
				if !used[name] {
					lv.FullName = name
					break
				}
			}
		}
		used[lv.FullName] = true
	}

	r.vgs = append(r.vgs, vg)
	return nil
}

// effectiveStripe is the stripe size seg is read with.
func effectiveStripe(seg *Segment) uint64 {
	if seg.Type == Mirror {
		return DefaultStripeSize
	}
	if seg.Type == Striped && len(seg.Nodes) == 1 && seg.StripeSize == 0 {
		return DefaultStripeSize
	}
	return seg.StripeSize
}

// ownerOf is the group lv belongs to, falling back to the group being
// registered for volumes not yet attached.
func ownerOf(lv *LogicalVolume, vg *VolumeGroup) *VolumeGroup {
	if lv.VG != nil {
		return lv.VG
	}
	return vg
}

func validateLV(lv *LogicalVolume, vg *VolumeGroup, visiting map[*LogicalVolume]bool) error {
	if lv == nil {
		return disk.ErrUnknownDevice.Errorf("unknown volume")
	}
	owner := ownerOf(lv, vg)
	if owner == nil || owner.ExtentSize == 0 {
		return disk.ErrReadError.Errorf("invalid volume")
	}
	if visiting[lv] {
		return disk.ErrBadFilesystem.Errorf("volume %v contains itself", lv.Name)
	}
	visiting[lv] = true
	defer delete(visiting, lv)

	for _, seg := range lv.Segments {
		if err := validateSegment(seg, owner, visiting); err != nil {
			return err
		}
	}
	return nil
}

func validateSegment(seg *Segment, vg *VolumeGroup, visiting map[*LogicalVolume]bool) error {
	count := len(seg.Nodes)
	if effectiveStripe(seg) == 0 || count == 0 {
		return disk.ErrBadFilesystem.Errorf("invalid segment")
	}

	switch seg.Type {
	case RAID10:
		l := seg.RAID10
		if l.Near < 1 || l.Far < 1 || l.Near > count {
			return disk.ErrBadFilesystem.Errorf("invalid segment")
		}
	case Striped, Mirror:
	case RAID4, RAID5:
		if count <= 1 {
			return disk.ErrBadFilesystem.Errorf("invalid segment")
		}
	case RAID6:
		if count <= 2 {
			return disk.ErrBadFilesystem.Errorf("invalid segment")
		}
	default:
		return disk.ErrNotImplemented.Errorf("unsupported RAID level %d", int(seg.Type))
	}

	for _, node := range seg.Nodes {
		switch {
		case node.PV != nil && node.LV != nil:
			return disk.ErrBadFilesystem.Errorf("node '%v' references two volumes", node.Name)
		case node.PV != nil:
		case node.LV != nil:
			if err := validateLV(node.LV, vg, visiting); err != nil {
				return err
			}
		default:
			return disk.ErrUnknownDevice.Errorf("unknown node '%v'", node.Name)
		}
	}
	return nil
}

// validateCoverage checks that the segments are sorted and cover the
// whole volume without holes.
func validateCoverage(lv *LogicalVolume, vg *VolumeGroup) error {
	next := uint64(0)
	for _, seg := range lv.Segments {
		if seg.StartExtent != next || seg.ExtentCount == 0 {
			return disk.ErrBadFilesystem.Errorf("invalid segment chain in %v", lv.Name)
		}
		next += seg.ExtentCount
	}
	if next*ownerOf(lv, vg).ExtentSize != lv.Size {
		return disk.ErrBadFilesystem.Errorf("segments of %v do not cover %d sectors", lv.Name, lv.Size)
	}
	return nil
}

// Close drops every volume group, closing the member disks.
func (r *Registry) Close() {
	for _, vg := range r.vgs {
		for _, pv := range vg.PVs {
			if pv.Disk != nil {
				pv.Disk.Close()
				pv.Disk = nil
			}
		}
	}
	r.vgs = nil
}
