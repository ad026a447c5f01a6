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

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/utils"
)

func layoutName(seg *Segment) string {
	switch seg.Type {
	case RAID10:
		l := seg.RAID10
		s := fmt.Sprintf("near=%d,far=%d", l.Near, l.Far)
		if l.FarOffset {
			s += ",offset"
		}
		return s
	case RAID4:
		return "parity-last"
	case RAID5, RAID6:
		rotation, placement := "left", "asymmetric"
		if seg.Parity.RightRotation {
			rotation = "right"
		}
		if seg.Parity.Symmetric {
			placement = "symmetric"
		}
		return rotation + "-" + placement
	}
	return ""
}

func memberInfo(pv *PhysicalVolume) api.MemberInfo {
	info := api.MemberInfo{
		Name:        pv.Name,
		ID:          pv.ID.String(),
		StartSector: pv.StartSector,
		PartStart:   pv.PartStart,
		PartSize:    pv.PartSize,
		Partmaps:    pv.Partmaps,
	}
	if pv.Disk != nil {
		info.Disk = pv.Disk.Name()
		info.DiskType = pv.Disk.Type().String()
	}
	return info
}

// VolumeInfo describes lv and the state of its members.
func (r *Registry) VolumeInfo(lv *LogicalVolume) api.VolumeInfo {
	info := api.VolumeInfo{
		Name:             lv.FullName,
		IDName:           lv.IDName,
		Number:           lv.Number,
		Size:             lv.Size,
		Visible:          lv.Visible,
		Readable:         r.LVReadable(lv, false),
		BecameReadableAt: lv.BecameReadableAt,
		Segments:         []api.SegmentInfo{},
		Members:          []api.MemberInfo{},
	}
	info.Degraded = info.Readable && !r.LVReadable(lv, true)
	if vg := lv.VG; vg != nil {
		info.Group = vg.Name
		info.GroupUUID = utils.FormatUUID(vg.UUID)
		info.Driver = vg.Driver
	}

	seen := map[*PhysicalVolume]bool{}
	for _, seg := range lv.Segments {
		si := api.SegmentInfo{
			StartExtent: seg.StartExtent,
			ExtentCount: seg.ExtentCount,
			Level:       seg.Type.String(),
			StripeSize:  seg.StripeSize,
			Layout:      layoutName(seg),
		}
		for _, node := range seg.Nodes {
			si.Nodes = append(si.Nodes, node.Name)
			if node.PV != nil && !seen[node.PV] {
				seen[node.PV] = true
				info.Members = append(info.Members, memberInfo(node.PV))
			}
		}
		info.Segments = append(info.Segments, si)
	}
	return info
}

// Inventory describes every group known to the registry.
func (r *Registry) Inventory() *api.InventoryResponse {
	inv := &api.InventoryResponse{Groups: []api.GroupInfo{}}
	for _, vg := range r.vgs {
		g := api.GroupInfo{
			UUID:       utils.FormatUUID(vg.UUID),
			Name:       vg.Name,
			Driver:     vg.Driver,
			ExtentSize: vg.ExtentSize,
			Members:    []api.MemberInfo{},
			Volumes:    []api.VolumeInfo{},
		}
		for _, pv := range vg.PVs {
			g.Members = append(g.Members, memberInfo(pv))
		}
		for _, lv := range vg.LVs {
			g.Volumes = append(g.Volumes, r.VolumeInfo(lv))
		}
		inv.Groups = append(inv.Groups, g)
	}
	return inv
}

// StatsInfo reports the counters of the registry.
func (r *Registry) StatsInfo() api.StatsInfo {
	return api.StatsInfo{
		Reads:          r.stats.Reads,
		ReadErrors:     r.stats.ReadErrors,
		Recoveries:     r.stats.Recoveries,
		Scans:          r.stats.Scans,
		InsertionCount: r.insCount,
	}
}
