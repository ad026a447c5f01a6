//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package diskfilter

// NodeReader reads the data behind a segment member.
type NodeReader interface {
	ReadNode(node *Node, sector uint64, buf []byte) error
}

// RecoveryRequest asks for the content of a failed member to be
// rebuilt from the other members of its stripe row.
type RecoveryRequest struct {
	Segment *Segment
	// Failed is the index of the member whose read failed
	Failed int
	// Parity is the index of the parity member of the row, QParity
	// the index of the RAID6 syndrome member or -1.
	Parity  int
	QParity int
	// Data lists the data member indexes of the row in data order,
	// QData the same members in Q syndrome order.
	Data  []int
	QData []int
	// Sector is relative to the members. Buf is filled with the
	// rebuilt data and its length gives the size of the request.
	Sector uint64
	Buf    []byte
}

// Recoverer rebuilds data lost on a failed member.
type Recoverer interface {
	Recover(rd NodeReader, req *RecoveryRequest) error
}

// RecovererFunc adapts a function to the Recoverer interface.
type RecovererFunc func(rd NodeReader, req *RecoveryRequest) error

func (f RecovererFunc) Recover(rd NodeReader, req *RecoveryRequest) error {
	return f(rd, req)
}

// DataIndex returns the position of member in the data order of the
// request, or -1 for parity members.
func (req *RecoveryRequest) DataIndex(member int) int {
	for i, m := range req.Data {
		if m == member {
			return i
		}
	}
	return -1
}

// QIndex returns the Q syndrome slot of member, or -1 for parity
// members.
func (req *RecoveryRequest) QIndex(member int) int {
	for i, m := range req.QData {
		if m == member {
			return i
		}
	}
	return -1
}
