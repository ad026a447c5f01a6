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
)

// ReadNode reads sectors of a segment member. Sector is relative to
// the start of the member.
func (r *Registry) ReadNode(node *Node, sector uint64, buf []byte) error {
	switch {
	case node.PV != nil:
		if node.PV.Disk == nil {
			return disk.ErrUnknownDevice.Errorf("physical volume %v not found", node.PV.Name)
		}
		return node.PV.Disk.ReadSectors(sector+node.Start+node.PV.StartSector, buf)
	case node.LV != nil:
		return r.ReadLV(node.LV, sector+node.Start, buf)
	}
	return disk.ErrUnknownDevice.Errorf("unknown node '%v'", node.Name)
}

// ReadLV reads sectors of a logical volume, splitting the request at
// segment boundaries.
func (r *Registry) ReadLV(lv *LogicalVolume, sector uint64, buf []byte) error {
	if lv == nil {
		return disk.ErrUnknownDevice.Errorf("unknown volume")
	}
	if len(buf)%disk.SectorSize != 0 {
		return disk.ErrBadArgument.Errorf("read of %v bytes is not sector aligned", len(buf))
	}

	extentSize := lv.VG.ExtentSize
	size := uint64(len(buf)) >> disk.SectorBits
	for size > 0 {
		seg := lv.segmentAt(sector / extentSize)
		if seg == nil {
			return disk.ErrReadError.Errorf("incorrect segment")
		}

		toRead := (seg.StartExtent+seg.ExtentCount)*extentSize - sector
		if toRead > size {
			toRead = size
		}
		err := r.ReadSegment(seg, sector-seg.StartExtent*extentSize,
			buf[:toRead<<disk.SectorBits])
		if err != nil {
			return err
		}

		size -= toRead
		sector += toRead
		buf = buf[toRead<<disk.SectorBits:]
	}
	return nil
}

// ReadSegment translates a read of the segment address space into
// member reads. Member failures are retried on other copies, or the
// data is rebuilt from parity.
func (r *Registry) ReadSegment(seg *Segment, sector uint64, buf []byte) error {
	switch seg.Type {
	case Striped:
		if len(seg.Nodes) == 1 {
			return r.ReadNode(seg.Nodes[0], sector, buf)
		}
		return r.readCopies(seg, sector, buf)
	case Mirror, RAID10:
		return r.readCopies(seg, sector, buf)
	case RAID4, RAID5, RAID6:
		return r.readParity(seg, sector, buf)
	}
	return disk.ErrNotImplemented.Errorf("unsupported RAID level %d", int(seg.Type))
}

func minSectors(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// readCopies serves striped, mirrored and RAID10 layouts, which only
// differ in their number of near and far copies.
func (r *Registry) readCopies(seg *Segment, sector uint64, buf []byte) error {
	count := uint64(len(seg.Nodes))
	stripe := seg.StripeSize
	size := uint64(len(buf)) >> disk.SectorBits

	block, b := sector/stripe, sector%stripe
	near, far, ofs := uint64(1), uint64(1), uint64(1)
	farOfs := uint64(0)

	switch seg.Type {
	case Mirror:
		near = count
	case RAID10:
		near = uint64(seg.RAID10.Near)
		far = uint64(seg.RAID10.Far)
		if seg.RAID10.FarOffset {
			ofs = far
			farOfs = 1
		} else {
			farOfs = seg.MemberSize / (far * stripe)
		}
		farOfs *= stripe
	}

	readSector, disknr := (block*near)/count, (block*near)%count
	ofs *= stripe
	readSector *= ofs

	for {
		readSize := minSectors(stripe-b, size)
		chunk := buf[:readSize<<disk.SectorBits]

		var err error
		i := uint64(0)
		for ; i < near; i++ {
			k := disknr
			for j := uint64(0); j < far; j++ {
				err = r.ReadNode(seg.Nodes[k], readSector+j*farOfs+b, chunk)
				if err == nil {
					break
				}
				if !disk.Retryable(err) {
					return err
				}
				logger.Debug("copy %v of segment failed: %v", k, err)
				k++
				if k == count {
					k = 0
				}
			}
			if err == nil {
				break
			}

			disknr++
			if disknr == count {
				disknr = 0
				readSector += ofs
			}
		}
		if err != nil {
			return err
		}

		buf = buf[len(chunk):]
		size -= readSize
		if size == 0 {
			return nil
		}

		b = 0
		disknr += near - i
		for disknr >= count {
			disknr -= count
			readSector += ofs
		}
	}
}

// dataMembers lists the data members of a parity stripe row in data
// order, p being the parity member of the row.
func (seg *Segment) dataMembers(p int) []int {
	count := len(seg.Nodes)
	n := seg.Type.ParityCount()
	members := make([]int, 0, count-n)

	if seg.Type != RAID4 && seg.Parity.Symmetric {
		for i := 0; i < count-n; i++ {
			members = append(members, (p+n+i)%count)
		}
		return members
	}

	for i := 0; i < count; i++ {
		// parity slots may wrap around the last member
		if (i >= p && i < p+n) || (i+count >= p && i+count < p+n) {
			continue
		}
		members = append(members, i)
	}
	return members
}

// qMembers lists the data members of a RAID6 row in Q syndrome order.
// Slots are counted cyclically from the member after q, whatever the
// data layout.
func (seg *Segment) qMembers(q int) []int {
	count := len(seg.Nodes)
	members := make([]int, 0, count-2)
	for k := 0; k < count-2; k++ {
		members = append(members, (q+1+k)%count)
	}
	return members
}

// readParity serves RAID4, RAID5 and RAID6 layouts.
func (r *Registry) readParity(seg *Segment, sector uint64, buf []byte) error {
	count := uint64(len(seg.Nodes))
	n := uint64(seg.Type.ParityCount())
	stripe := seg.StripeSize
	size := uint64(len(buf)) >> disk.SectorBits
	symmetric := seg.Type != RAID4 && seg.Parity.Symmetric
	right := seg.Parity.RightRotation

	row, b := sector/stripe, sector%stripe
	readSector, disknr := row/(count-n), row%(count-n)

	var p uint64
	if seg.Type != RAID4 {
		p = readSector % count
		if !right {
			p = count - 1 - p
		}

		if symmetric {
			disknr += p + n
		} else {
			q := p + (n - 1)
			if q >= count {
				q -= count
			}
			if disknr >= p {
				disknr += n
			} else if disknr >= q {
				disknr += q + 1
			}
		}
		if disknr >= count {
			disknr -= count
		}
	} else {
		p = count - n
	}
	readSector *= stripe

	for {
		readSize := minSectors(stripe-b, size)
		chunk := buf[:readSize<<disk.SectorBits]

		err := r.ReadNode(seg.Nodes[disknr], readSector+b, chunk)
		if err != nil {
			if !disk.Retryable(err) {
				return err
			}
			logger.Debug("member %v of %v segment failed: %v", disknr, seg.Type, err)
			err = r.recoverChunk(seg, int(disknr), int(p), readSector+b, chunk)
			if err != nil {
				return err
			}
		}

		buf = buf[len(chunk):]
		size -= readSize
		if size == 0 {
			return nil
		}

		b = 0
		disknr++

		var nextRow bool
		if symmetric {
			if disknr == count {
				disknr = 0
			}
			nextRow = disknr == p
		} else {
			if disknr == p {
				disknr += n
			}
			nextRow = disknr >= count
		}
		if !nextRow {
			continue
		}

		readSector += stripe
		if seg.Type == RAID4 {
			disknr = 0
			continue
		}

		if right {
			if p == count-1 {
				p = 0
			} else {
				p++
			}
		} else {
			if p == 0 {
				p = count - 1
			} else {
				p--
			}
		}

		if symmetric {
			disknr = p + n
		} else {
			// first member, unless it holds a syndrome of the row
			disknr = 0
			if p == 0 || p+n > count {
				disknr = p + n
			}
		}
		if disknr >= count {
			disknr -= count
		}
	}
}

func (r *Registry) recoverChunk(seg *Segment, failed, p int, sector uint64, buf []byte) error {
	level, module := RAID5, "raid5rec"
	if seg.Type == RAID6 {
		level, module = RAID6, "raid6rec"
	}
	rec, ok := r.recoverers[level]
	if !ok {
		return ErrModuleMissing.Errorf("module `%v' isn't loaded", module)
	}

	req := &RecoveryRequest{
		Segment: seg,
		Failed:  failed,
		Parity:  p,
		QParity: -1,
		Data:    seg.dataMembers(p),
		Sector:  sector,
		Buf:     buf,
	}
	if seg.Type == RAID6 {
		req.QParity = (p + 1) % len(seg.Nodes)
		req.QData = seg.qMembers(req.QParity)
	}

	r.stats.Recoveries++
	return rec.Recover(r, req)
}
