// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gpt builds and parses GPT-partitioned raw disk images.
//
// The package is a pure in-memory codec: Build lays out a partition table
// for a given geometry, Encode produces the exact byte image (protective
// MBR, primary and backup headers, entry arrays, checksums), and Decode
// parses and validates raw bytes back into the same model. Writing the
// resulting bytes to a file or block device is the caller's job.
package gpt

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beersonthewall/yoyo/internal/gptstructs"
	"github.com/beersonthewall/yoyo/internal/gptutil"
)

// Partition is a single partition entry in GPT.
type Partition struct {
	Name string

	TypeGUID uuid.UUID
	PartGUID uuid.UUID

	FirstLBA uint64
	LastLBA  uint64

	Flags uint64
}

// Sectors returns the partition length in sectors.
func (p Partition) Sectors() uint64 {
	return p.LastLBA - p.FirstLBA + 1
}

// PartitionRequest describes a partition to be placed by Build.
type PartitionRequest struct {
	// Size is the requested partition size in sectors.
	Size uint64

	// Type is the partition type GUID.
	Type uuid.UUID

	// Name is the human-readable partition name, up to 36 UTF-16 code units.
	Name string

	// UniqueGUID identifies this partition instance.
	//
	// If not set, a new GUID is generated.
	UniqueGUID uuid.UUID

	// Flags are the partition attribute bits.
	Flags uint64
}

// Image is an immutable in-memory model of a GPT disk image.
//
// An Image is constructed by Build or Decode and is the sole authority for
// every offset derived from it. To change the partition layout, build a
// new Image.
type Image struct {
	geometry Geometry
	diskGUID uuid.UUID
	parts    []Partition
}

// Build lays out a partition table for the given geometry.
//
// Requests are placed in order, each starting at the next free LBA rounded
// up to the alignment (DefaultAlignment unless overridden).
func Build(geometry Geometry, requests []PartitionRequest, opts ...Option) (*Image, error) {
	options := makeOptions(opts...)

	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	if len(requests) > gptstructs.NumEntries {
		return nil, fmt.Errorf("%w: %d requested, %d slots", ErrTooManyPartitions, len(requests), gptstructs.NumEntries)
	}

	diskGUID := options.DiskGUID
	if diskGUID == uuid.Nil {
		var err error

		if diskGUID, err = options.newGUID(); err != nil {
			return nil, fmt.Errorf("failed to generate disk GUID: %w", err)
		}
	}

	img := &Image{
		geometry: geometry,
		diskGUID: diskGUID,
	}

	nextLBA := geometry.FirstUsableLBA()

	for i, req := range requests {
		if req.Size == 0 {
			return nil, fmt.Errorf("%w: request %d (%q)", ErrZeroSizePartition, i, req.Name)
		}

		if req.Type == uuid.Nil {
			return nil, fmt.Errorf("%w: request %d (%q)", ErrZeroTypeGUID, i, req.Name)
		}

		if _, err := gptutil.EncodeName(req.Name); err != nil {
			return nil, fmt.Errorf("%w: request %d: %v", ErrNameTooLong, i, err)
		}

		firstLBA := nextLBA

		if rem := firstLBA % options.Alignment; rem != 0 {
			pad := options.Alignment - rem

			if firstLBA > math.MaxUint64-pad {
				return nil, fmt.Errorf("%w: request %d (%q): aligned start LBA overflows",
					ErrInsufficientSpace, i, req.Name)
			}

			firstLBA += pad
		}

		// size check subtracts instead of adding so an absurd request cannot
		// wrap past the usable window
		if firstLBA > geometry.LastUsableLBA() || req.Size > geometry.LastUsableLBA()-firstLBA+1 {
			return nil, fmt.Errorf("%w: request %d (%q) needs %d sectors at LBA %d, last usable is %d",
				ErrInsufficientSpace, i, req.Name, req.Size, firstLBA, geometry.LastUsableLBA())
		}

		lastLBA := firstLBA + req.Size - 1

		partGUID := req.UniqueGUID
		if partGUID == uuid.Nil {
			var err error

			if partGUID, err = options.newGUID(); err != nil {
				return nil, fmt.Errorf("failed to generate partition GUID: %w", err)
			}
		}

		img.parts = append(img.parts, Partition{
			Name:     req.Name,
			TypeGUID: req.Type,
			PartGUID: partGUID,
			FirstLBA: firstLBA,
			LastLBA:  lastLBA,
			Flags:    req.Flags,
		})

		options.Logger.Debug("placed partition",
			zap.Int("index", i),
			zap.String("name", req.Name),
			zap.Uint64("first_lba", firstLBA),
			zap.Uint64("last_lba", lastLBA),
		)

		nextLBA = lastLBA + 1
	}

	return img, nil
}

// Geometry returns the image geometry.
func (img *Image) Geometry() Geometry {
	return img.geometry
}

// DiskGUID returns the disk GUID.
func (img *Image) DiskGUID() uuid.UUID {
	return img.diskGUID
}

// Partitions returns the partition entries in entry-array slot order.
//
// The returned list should not be modified.
func (img *Image) Partitions() []Partition {
	return slices.Clone(img.parts)
}

// PartitionByteRange returns the absolute byte offset and length of the
// partition payload area, for embedding partition contents into the image.
func (img *Image) PartitionByteRange(i int) (offset, length uint64, err error) {
	if i < 0 || i >= len(img.parts) {
		return 0, 0, fmt.Errorf("partition %d out of range", i)
	}

	part := img.parts[i]

	return part.FirstLBA * uint64(img.geometry.SectorSize),
		part.Sectors() * uint64(img.geometry.SectorSize),
		nil
}
