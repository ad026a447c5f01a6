//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package diskfilter

// Required returns how many members of the segment must be present
// for its data to be read. When easily is false, parity levels may
// run degraded.
func (s *Segment) Required(easily bool) int {
	count := len(s.Nodes)
	need := count

	switch s.Type {
	case Mirror:
		need = 1
	case RAID4, RAID5, RAID6:
		if !easily {
			need = count - s.Type.ParityCount()
		}
	case RAID10:
		copies := s.RAID10.Near
		if copies == 1 {
			copies = s.RAID10.Far
		}
		need = count - copies + 1
	}

	if need < 1 {
		need = 1
	}
	return need
}

// NodeReadable reports whether the data behind node can be reached.
func (r *Registry) NodeReadable(node *Node, easily bool) bool {
	switch {
	case node.PV != nil:
		return node.PV.Disk != nil
	case node.LV != nil:
		return r.LVReadable(node.LV, easily)
	}
	return false
}

// LVReadable reports whether every segment of lv has enough members.
func (r *Registry) LVReadable(lv *LogicalVolume, easily bool) bool {
	if lv == nil {
		return false
	}
	for _, seg := range lv.Segments {
		need := seg.Required(easily)
		have := 0
		for _, node := range seg.Nodes {
			if r.NodeReadable(node, easily) {
				have++
			}
			if have >= need {
				break
			}
		}
		if have < need {
			return false
		}
	}
	return true
}
