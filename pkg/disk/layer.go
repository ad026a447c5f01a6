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
	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/utils"
)

const (
	// MaxPartitionDepth bounds the descent into partitions nested
	// inside partitions.
	MaxPartitionDepth = 100
)

var (
	logger = utils.NewLogger("[disk]", utils.LEVEL_INFO)
)

// Layer is the set of disk sources and partition maps known to the
// process. Sources are consulted in registration order.
type Layer struct {
	sources  []Source
	partmaps []PartitionMap
}

func NewLayer() *Layer {
	return &Layer{}
}

// NewDefaultLayer returns a layer that already knows the msdos
// partition map.
func NewDefaultLayer() *Layer {
	l := NewLayer()
	l.RegisterPartitionMap(&MSDOSPartitionMap{})
	return l
}

func (l *Layer) Register(s Source) {
	godbc.Require(s != nil)
	l.sources = append(l.sources, s)
}

func (l *Layer) RegisterPartitionMap(m PartitionMap) {
	godbc.Require(m != nil)
	l.partmaps = append(l.partmaps, m)
}

// Sources returns the registered sources in registration order.
func (l *Layer) Sources() []Source {
	return l.sources
}

// Iterate lists the disks of every source for the given pass.
func (l *Layer) Iterate(pull Pull, hook func(name string) bool) bool {
	for _, s := range l.sources {
		if s.Iterate(pull, hook) {
			return true
		}
	}
	return false
}

// Open opens a disk, or a partition of it when the name carries a
// partition path ("hd0,msdos1").
func (l *Layer) Open(name string) (Disk, error) {
	diskName, path := SplitName(name)

	var whole Disk
	for _, s := range l.sources {
		d, err := s.Open(diskName)
		if ErrUnknownDevice.In(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		whole = d
		break
	}
	if whole == nil {
		return nil, ErrUnknownDevice.Errorf("disk `%v' not found", diskName)
	}
	if path == "" {
		return whole, nil
	}

	var found Disk
	l.IteratePartitions(whole, func(p Disk) bool {
		if PartitionOf(p).Path() == path {
			found = p
			return true
		}
		return false
	})
	if found == nil {
		whole.Close()
		return nil, ErrUnknownDevice.Errorf("no such partition `%v'", name)
	}
	return &ownedPartition{found}, nil
}

// ownedPartition closes its whole disk when closed. It is what Open
// hands out for partition names.
type ownedPartition struct {
	Disk
}

func (d *ownedPartition) Close() error {
	return WholeDisk(d.Disk).Close()
}

// IteratePartitions calls hook for every partition found on d by any
// registered partition map, descending into nested tables.
func (l *Layer) IteratePartitions(d Disk, hook func(p Disk) bool) bool {
	return l.iteratePartitions(d, hook, 0)
}

func (l *Layer) iteratePartitions(d Disk, hook func(p Disk) bool, depth int) bool {
	if depth >= MaxPartitionDepth {
		logger.Warning("partition nesting too deep on %v", d.Name())
		return false
	}
	whole := WholeDisk(d)
	for _, m := range l.partmaps {
		stop, err := m.Iterate(d, func(p *Partition) bool {
			pd := NewPartitionDisk(whole, p)
			if hook(pd) {
				return true
			}
			return l.iteratePartitions(pd, hook, depth+1)
		})
		if err != nil && !ErrOutOfRange.In(err) {
			logger.LogError("%v partition map on %v: %v", m.Name(), d.Name(), err)
		}
		if stop {
			return true
		}
	}
	return false
}
