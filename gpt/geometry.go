// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"fmt"

	"github.com/beersonthewall/yoyo/internal/gptstructs"
)

// Geometry describes the addressable space of a disk image.
//
// All derived LBAs are computed from the two fields; nothing else in the
// package computes an offset on its own.
type Geometry struct {
	// TotalSectors is the size of the disk in sectors.
	TotalSectors uint64

	// SectorSize is the logical sector size in bytes (512 for most media).
	SectorSize uint
}

// Validate checks that the geometry can hold the GPT structures.
func (g Geometry) Validate() error {
	if g.SectorSize < 512 || g.SectorSize&(g.SectorSize-1) != 0 {
		return fmt.Errorf("unsupported sector size %d", g.SectorSize)
	}

	// MBR, two headers, two entry arrays, at least one usable sector
	if g.TotalSectors < 2*g.EntryArraySectors()+4 {
		return fmt.Errorf("%w: %d sectors of %d bytes", ErrImageTooSmall, g.TotalSectors, g.SectorSize)
	}

	return nil
}

// Bytes returns the total size of the image in bytes.
func (g Geometry) Bytes() uint64 {
	return g.TotalSectors * uint64(g.SectorSize)
}

// LastLBA returns the last addressable LBA.
func (g Geometry) LastLBA() uint64 {
	return g.TotalSectors - 1
}

// EntryArraySectors returns the number of sectors occupied by a partition entry array.
func (g Geometry) EntryArraySectors() uint64 {
	return uint64((gptstructs.EntriesLength + g.SectorSize - 1) / g.SectorSize)
}

// PrimaryHeaderLBA returns the LBA of the primary GPT header.
func (g Geometry) PrimaryHeaderLBA() uint64 {
	return 1
}

// PrimaryEntriesLBA returns the LBA of the primary partition entry array.
func (g Geometry) PrimaryEntriesLBA() uint64 {
	return g.PrimaryHeaderLBA() + 1
}

// BackupHeaderLBA returns the LBA of the backup GPT header.
func (g Geometry) BackupHeaderLBA() uint64 {
	return g.LastLBA()
}

// BackupEntriesLBA returns the LBA of the backup partition entry array.
//
// The backup array sits immediately before the backup header.
func (g Geometry) BackupEntriesLBA() uint64 {
	return g.BackupHeaderLBA() - g.EntryArraySectors()
}

// FirstUsableLBA returns the first LBA available for partitions.
func (g Geometry) FirstUsableLBA() uint64 {
	return g.PrimaryEntriesLBA() + g.EntryArraySectors()
}

// LastUsableLBA returns the last LBA available for partitions.
func (g Geometry) LastUsableLBA() uint64 {
	return g.BackupEntriesLBA() - 1
}
