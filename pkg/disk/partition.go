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
	"fmt"
	"strings"
)

// Partition describes a slice of a whole disk. Start is absolute on
// the whole disk, even for nested partitions.
type Partition struct {
	Number int
	Start  uint64
	Length uint64
	Map    string
	Parent *Partition
}

func (p *Partition) String() string {
	return fmt.Sprintf("%v%v", p.Map, p.Number)
}

// Path returns the partition names from the outermost partition down
// to p, e.g. "msdos1,bsd2".
func (p *Partition) Path() string {
	var names []string
	for q := p; q != nil; q = q.Parent {
		names = append([]string{q.String()}, names...)
	}
	return strings.Join(names, ",")
}

// PartitionMap knows how to list the partitions of one on-disk
// partition table format.
type PartitionMap interface {
	Name() string
	// Iterate calls hook for every partition of d. Partitions returned
	// carry absolute starts and have d's own partition as parent.
	// A disk without this kind of table is not an error.
	Iterate(d Disk, hook func(p *Partition) bool) (bool, error)
}

// partitionDisk is the view of a partition of a whole disk.
type partitionDisk struct {
	whole Disk
	part  *Partition
}

// NewPartitionDisk returns a Disk which reads the partition p of the
// whole disk. Closing the view does not close the whole disk.
func NewPartitionDisk(whole Disk, p *Partition) Disk {
	return &partitionDisk{whole: whole, part: p}
}

func (d *partitionDisk) Name() string {
	return d.whole.Name() + "," + d.part.Path()
}

func (d *partitionDisk) Type() DeviceType {
	return d.whole.Type()
}

func (d *partitionDisk) ID() uint64 {
	return d.whole.ID()
}

func (d *partitionDisk) Sectors() uint64 {
	return d.part.Length
}

func (d *partitionDisk) ReadSectors(sector uint64, buf []byte) error {
	if err := CheckRange(d, sector, buf); err != nil {
		return err
	}
	return d.whole.ReadSectors(d.part.Start+sector, buf)
}

func (d *partitionDisk) Close() error {
	return nil
}

// PartitionOf returns the partition d is a view of, or nil for whole
// disks.
func PartitionOf(d Disk) *Partition {
	if pd, ok := d.(*partitionDisk); ok {
		return pd.part
	}
	return nil
}

// PartitionStart returns the absolute start of d on its whole disk.
func PartitionStart(d Disk) uint64 {
	if p := PartitionOf(d); p != nil {
		return p.Start
	}
	return 0
}

// WholeDisk returns the whole disk behind a partition view.
func WholeDisk(d Disk) Disk {
	if pd, ok := d.(*partitionDisk); ok {
		return pd.whole
	}
	return d
}

// PartitionMaps returns the partition map names d sits under, the
// innermost first.
func PartitionMaps(d Disk) []string {
	var maps []string
	for p := PartitionOf(d); p != nil; p = p.Parent {
		maps = append(maps, p.Map)
	}
	return maps
}

// SplitName separates a device name into the whole disk name and the
// partition path, e.g. "hd0,msdos1" -> "hd0", "msdos1".
func SplitName(name string) (string, string) {
	if i := strings.IndexByte(name, ','); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}
