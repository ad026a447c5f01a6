//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

// Package recovery rebuilds the data of failed members of parity
// arrays.
package recovery

import (
	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/utils"
)

var (
	logger = utils.NewLogger("[recovery]", utils.LEVEL_INFO)
)

// Register installs both recoverers into r. RAID4 arrays use the RAID5
// one.
func Register(r *diskfilter.Registry) {
	r.RegisterRecoverer(diskfilter.RAID5, diskfilter.RecovererFunc(RecoverRAID5))
	r.RegisterRecoverer(diskfilter.RAID6, diskfilter.RecovererFunc(RecoverRAID6))
}

// RecoverRAID5 rebuilds the failed member as the xor of every other
// member of the row, parity included.
func RecoverRAID5(rd diskfilter.NodeReader, req *diskfilter.RecoveryRequest) error {
	for i := range req.Buf {
		req.Buf[i] = 0
	}

	tmp := make([]byte, len(req.Buf))
	for i, node := range req.Segment.Nodes {
		if i == req.Failed {
			continue
		}
		if err := rd.ReadNode(node, req.Sector, tmp); err != nil {
			return err
		}
		xorInto(req.Buf, tmp)
	}
	return nil
}

// RecoverRAID6 rebuilds a failed data member from the P and Q
// syndromes. One more data member may fail while doing so, in which
// case both syndromes are needed. Q coefficients follow the slots of
// req.QData.
func RecoverRAID6(rd diskfilter.NodeReader, req *diskfilter.RecoveryRequest) error {
	nodes := req.Segment.Nodes
	bad1 := req.QIndex(req.Failed)
	if bad1 < 0 || req.QParity < 0 {
		return disk.ErrBadArgument.Errorf("member %v is not a data member", req.Failed)
	}
	if len(req.QData) > 255 {
		return disk.ErrBadFilesystem.Errorf("too many data members: %v", len(req.QData))
	}

	size := len(req.Buf)
	pbuf := make([]byte, size)
	qbuf := make([]byte, size)
	tmp := make([]byte, size)

	bad2 := -1
	for i, member := range req.QData {
		if i == bad1 {
			continue
		}
		if err := rd.ReadNode(nodes[member], req.Sector, tmp); err != nil {
			if bad2 >= 0 {
				return disk.ErrReadError.Errorf("too many failed members: %v", err)
			}
			logger.Debug("member %v failed too: %v", member, err)
			bad2 = i
			continue
		}
		xorInto(pbuf, tmp)
		mulXorInto(qbuf, tmp, gfPow(i))
	}

	if bad2 < 0 {
		// one data member lost: P is enough, Q otherwise
		err := rd.ReadNode(nodes[req.Parity], req.Sector, tmp)
		if err == nil {
			xorInto(pbuf, tmp)
			copy(req.Buf, pbuf)
			return nil
		}
		logger.Debug("P syndrome unreadable: %v", err)

		if err := rd.ReadNode(nodes[req.QParity], req.Sector, tmp); err != nil {
			return err
		}
		xorInto(qbuf, tmp)
		inv := gfInv(gfPow(bad1))
		for i := range req.Buf {
			req.Buf[i] = gfMul(qbuf[i], inv)
		}
		return nil
	}

	if err := rd.ReadNode(nodes[req.Parity], req.Sector, tmp); err != nil {
		return err
	}
	xorInto(pbuf, tmp)
	if err := rd.ReadNode(nodes[req.QParity], req.Sector, tmp); err != nil {
		return err
	}
	xorInto(qbuf, tmp)

	// pbuf = Dx + Dy, qbuf = g^x Dx + g^y Dy
	gy := gfPow(bad2)
	inv := gfInv(gfPow(bad1) ^ gy)
	for i := range req.Buf {
		req.Buf[i] = gfMul(gfMul(pbuf[i], gy)^qbuf[i], inv)
	}
	return nil
}

func SetLogLevel(level utils.LogLevel) {
	logger.SetLevel(level)
}

func LogLevel() utils.LogLevel {
	return logger.Level()
}
