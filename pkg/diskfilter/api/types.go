//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), as published by the Free Software Foundation,
// or under the Apache License, Version 2.0 <LICENSE-APACHE2 or
// http://www.apache.org/licenses/LICENSE-2.0>.
//
// You may not use this file except in compliance with those terms.
//

// Types exchanged by the diskfilter server, its clients and the
// command line tool.
package api

import (
	"fmt"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	// MaxReadSectors bounds a single data request
	MaxReadSectors = 2048
)

var (
	// Disk names are used inside volume names and partition paths, so
	// commas and slashes are not allowed
	diskNameRe = regexp.MustCompile("^[a-zA-Z0-9_.-]+$")

	// Restricting the device path to much smaller subset of Unix Path
	devicePathRe = regexp.MustCompile("^/[a-zA-Z0-9_./-]+$")
)

// ValidateHexID checks the lowercase hex strings used for array uuids.
func ValidateHexID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	err := validation.Validate(s, is.Hexadecimal)
	if err != nil {
		return fmt.Errorf("%v is not a valid id", s)
	}
	return nil
}

// DeviceConfig is a disk given to the engine, backed by a file or a
// block device.
type DeviceConfig struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	Encrypted bool   `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Removable bool   `json:"removable,omitempty" yaml:"removable,omitempty"`
}

func (dev DeviceConfig) Validate() error {
	return validation.ValidateStruct(&dev,
		validation.Field(&dev.Name, validation.Required, validation.Match(diskNameRe)),
		validation.Field(&dev.Path, validation.Required, validation.Match(devicePathRe)),
	)
}

// ValidateDevices checks every device and that no name is used twice.
func ValidateDevices(devices []DeviceConfig) error {
	seen := map[string]bool{}
	for _, dev := range devices {
		if err := dev.Validate(); err != nil {
			return fmt.Errorf("device %v: %v", dev.Name, err)
		}
		if seen[dev.Name] {
			return fmt.Errorf("device %v is configured twice", dev.Name)
		}
		seen[dev.Name] = true
	}
	return nil
}

// Member
type MemberInfo struct {
	Name        string   `json:"name" yaml:"name"`
	ID          string   `json:"id" yaml:"id"`
	Disk        string   `json:"disk,omitempty" yaml:"disk,omitempty"`
	DiskType    string   `json:"disk_type,omitempty" yaml:"disk_type,omitempty"`
	StartSector uint64   `json:"start_sector" yaml:"start_sector"`
	PartStart   uint64   `json:"part_start" yaml:"part_start"`
	PartSize    uint64   `json:"part_size" yaml:"part_size"`
	Partmaps    []string `json:"partmaps,omitempty" yaml:"partmaps,omitempty"`
}

// Missing is true until a disk carrying the member was found.
func (m *MemberInfo) Missing() bool {
	return m.Disk == ""
}

// Segment
type SegmentInfo struct {
	StartExtent uint64   `json:"start_extent" yaml:"start_extent"`
	ExtentCount uint64   `json:"extent_count" yaml:"extent_count"`
	Level       string   `json:"level" yaml:"level"`
	StripeSize  uint64   `json:"stripe_size" yaml:"stripe_size"`
	Layout      string   `json:"layout,omitempty" yaml:"layout,omitempty"`
	Nodes       []string `json:"nodes" yaml:"nodes"`
}

// Volume
type VolumeInfo struct {
	Name             string        `json:"name" yaml:"name"`
	IDName           string        `json:"idname,omitempty" yaml:"idname,omitempty"`
	Number           int           `json:"number" yaml:"number"`
	Group            string        `json:"group" yaml:"group"`
	GroupUUID        string        `json:"group_uuid" yaml:"group_uuid"`
	Driver           string        `json:"driver" yaml:"driver"`
	Size             uint64        `json:"size" yaml:"size"`
	Visible          bool          `json:"visible" yaml:"visible"`
	Readable         bool          `json:"readable" yaml:"readable"`
	Degraded         bool          `json:"degraded" yaml:"degraded"`
	BecameReadableAt uint64        `json:"became_readable_at" yaml:"became_readable_at"`
	Segments         []SegmentInfo `json:"segments" yaml:"segments"`
	Members          []MemberInfo  `json:"members" yaml:"members"`
}

type VolumeListResponse struct {
	Volumes []string `json:"volumes" yaml:"volumes"`
}

// Group
type GroupInfo struct {
	UUID       string       `json:"uuid" yaml:"uuid"`
	Name       string       `json:"name" yaml:"name"`
	Driver     string       `json:"driver" yaml:"driver"`
	ExtentSize uint64       `json:"extent_size" yaml:"extent_size"`
	Members    []MemberInfo `json:"members" yaml:"members"`
	Volumes    []VolumeInfo `json:"volumes" yaml:"volumes"`
}

type InventoryResponse struct {
	Groups []GroupInfo `json:"groups" yaml:"groups"`
}

// Volumes returns every volume of the inventory, sorted by name.
func (inv *InventoryResponse) Volumes() []VolumeInfo {
	var vols []VolumeInfo
	for _, g := range inv.Groups {
		vols = append(vols, g.Volumes...)
	}
	sort.Slice(vols, func(i, j int) bool {
		return vols[i].Name < vols[j].Name
	})
	return vols
}

type StatsInfo struct {
	Reads          uint64 `json:"reads" yaml:"reads"`
	ReadErrors     uint64 `json:"read_errors" yaml:"read_errors"`
	Recoveries     uint64 `json:"recoveries" yaml:"recoveries"`
	Scans          uint64 `json:"scans" yaml:"scans"`
	InsertionCount uint64 `json:"insertion_count" yaml:"insertion_count"`
}

type RescanResponse struct {
	Added []string  `json:"added" yaml:"added"`
	Stats StatsInfo `json:"stats" yaml:"stats"`
}

type CryptoCheckResponse struct {
	Name      string `json:"name" yaml:"name"`
	Encrypted bool   `json:"encrypted" yaml:"encrypted"`
	Examined  int    `json:"examined" yaml:"examined"`
	Message   string `json:"message" yaml:"message"`
}

// ReadRequest selects sectors of a volume.
type ReadRequest struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

func (req ReadRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Length, validation.Required, validation.Max(uint64(MaxReadSectors))),
	)
}

// Logging
type LogLevelInfo struct {
	// should contain one or more logger to log-level-name mapping
	LogLevel map[string]string `json:"loglevel"`
}

func (info LogLevelInfo) Validate() error {
	return validation.ValidateStruct(&info,
		validation.Field(&info.LogLevel, validation.Required),
	)
}
