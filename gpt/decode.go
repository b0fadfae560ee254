// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"bytes"
	"cmp"
	"fmt"
	"hash/crc32"
	"io"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beersonthewall/yoyo/internal/gptstructs"
	"github.com/beersonthewall/yoyo/internal/gptutil"
)

type headerCopy string

const (
	primaryCopy headerCopy = "primary"
	backupCopy  headerCopy = "backup"
)

// Decode parses and validates a raw GPT disk image.
//
// Validation fails fast on the first structural violation; the returned
// error wraps one of the Err* sentinels and names the header copy it was
// detected at. Decoding never modifies the buffer and always produces a
// fresh Image.
func Decode(buf []byte, opts ...Option) (*Image, error) {
	return DecodeFrom(bytes.NewReader(buf), uint64(len(buf)), opts...)
}

// DecodeFrom is Decode reading from an io.ReaderAt of the given size, so
// large images do not have to be loaded into memory.
func DecodeFrom(r io.ReaderAt, size uint64, opts ...Option) (*Image, error) {
	options := makeOptions(opts...)

	if size == 0 || size%uint64(options.SectorSize) != 0 {
		return nil, fmt.Errorf("image size %d is not a positive multiple of sector size %d", size, options.SectorSize)
	}

	geom := Geometry{
		TotalSectors: size / uint64(options.SectorSize),
		SectorSize:   options.SectorSize,
	}

	if err := geom.Validate(); err != nil {
		return nil, err
	}

	primaryHdr, primaryEntries, err := readHeader(r, geom, primaryCopy, options.Logger)
	if err != nil {
		return nil, err
	}

	backupHdr, backupEntries, err := readHeader(r, geom, backupCopy, options.Logger)
	if err != nil {
		return nil, err
	}

	// primary and backup must describe the same logical table; divergence
	// is a hard failure, never silently resolved in favor of either copy
	switch {
	case primaryHdr.AlternateLBA() != backupHdr.MyLBA() || backupHdr.AlternateLBA() != primaryHdr.MyLBA():
		return nil, fmt.Errorf("%w: alternate LBA cross-references (%d/%d vs %d/%d)",
			ErrPrimaryBackupMismatch,
			primaryHdr.MyLBA(), primaryHdr.AlternateLBA(),
			backupHdr.MyLBA(), backupHdr.AlternateLBA())
	case !bytes.Equal(primaryHdr.DiskGUID(), backupHdr.DiskGUID()):
		return nil, fmt.Errorf("%w: disk GUID", ErrPrimaryBackupMismatch)
	case primaryHdr.FirstUsableLBA() != backupHdr.FirstUsableLBA() ||
		primaryHdr.LastUsableLBA() != backupHdr.LastUsableLBA():
		return nil, fmt.Errorf("%w: usable LBA window", ErrPrimaryBackupMismatch)
	case !bytes.Equal(primaryEntries, backupEntries):
		return nil, fmt.Errorf("%w: partition entry arrays", ErrPrimaryBackupMismatch)
	}

	diskGUID, err := uuid.FromBytes(gptutil.GUIDToUUID(primaryHdr.DiskGUID()))
	if err != nil {
		return nil, fmt.Errorf("invalid disk GUID: %w", err)
	}

	img := &Image{
		geometry: geom,
		diskGUID: diskGUID,
	}

	if img.parts, err = decodeEntries(primaryHdr, primaryEntries); err != nil {
		return nil, err
	}

	options.Logger.Debug("decoded image",
		zap.Uint64("total_sectors", geom.TotalSectors),
		zap.Stringer("disk_guid", diskGUID),
		zap.Int("partitions", len(img.parts)),
	)

	return img, nil
}

// readHeader reads and validates one header copy along with its partition
// entry array.
func readHeader(r io.ReaderAt, geom Geometry, copyName headerCopy, logger *zap.Logger) (gptstructs.Header, []byte, error) {
	lba := geom.PrimaryHeaderLBA()
	if copyName == backupCopy {
		lba = geom.BackupHeaderLBA()
	}

	buf := make([]byte, geom.SectorSize)

	if err := readFullAt(r, buf, int64(lba)*int64(geom.SectorSize)); err != nil {
		return nil, nil, fmt.Errorf("failed to read %s header: %w", copyName, err)
	}

	hdr := gptstructs.Header(buf)

	if hdr.Signature() != gptstructs.HeaderSignature {
		return nil, nil, fmt.Errorf("%s header: %w: 0x%016x", copyName, ErrBadSignature, hdr.Signature())
	}

	if hdr.HeaderSize() != gptstructs.HeaderSize {
		return nil, nil, fmt.Errorf("%s header: %w: %d", copyName, ErrBadHeaderSize, hdr.HeaderSize())
	}

	if stored, computed := hdr.HeaderChecksum(), hdr.CalculateChecksum(); stored != computed {
		return nil, nil, fmt.Errorf("%s header: %w: stored 0x%08x, computed 0x%08x",
			copyName, ErrHeaderChecksumMismatch, stored, computed)
	}

	if hdr.MyLBA() != lba {
		return nil, nil, fmt.Errorf("%s header: %w: claims LBA %d, found at LBA %d",
			copyName, ErrPrimaryBackupMismatch, hdr.MyLBA(), lba)
	}

	// the declared usable window must fit this disk, or a forged header with
	// valid checksums could place partitions past the end of the device
	if hdr.FirstUsableLBA() > hdr.LastUsableLBA() ||
		hdr.FirstUsableLBA() < geom.FirstUsableLBA() || hdr.LastUsableLBA() > geom.LastUsableLBA() {
		return nil, nil, fmt.Errorf("%s header: %w: usable LBAs %d..%d exceed %d..%d",
			copyName, ErrOutOfBounds, hdr.FirstUsableLBA(), hdr.LastUsableLBA(),
			geom.FirstUsableLBA(), geom.LastUsableLBA())
	}

	// sanity-check the declared entry array against the actual image size
	// before reading anything it points at
	numEntries := hdr.NumEntries()
	entrySize := hdr.EntrySize()
	entriesLBA := hdr.EntriesLBA()

	switch {
	case entrySize != gptstructs.EntrySize:
		return nil, nil, fmt.Errorf("%s header: %w: entry size %d", copyName, ErrBadEntryArray, entrySize)
	case numEntries == 0 || numEntries > gptstructs.NumEntries:
		return nil, nil, fmt.Errorf("%s header: %w: %d entries", copyName, ErrBadEntryArray, numEntries)
	case entriesLBA == 0 || entriesLBA >= geom.TotalSectors:
		return nil, nil, fmt.Errorf("%s header: %w: entry array at LBA %d", copyName, ErrBadEntryArray, entriesLBA)
	}

	entriesLen := uint64(numEntries) * uint64(entrySize)
	entriesOffset := entriesLBA * uint64(geom.SectorSize)

	if entriesOffset+entriesLen > geom.Bytes() {
		return nil, nil, fmt.Errorf("%s header: %w: entry array at LBA %d overruns the image",
			copyName, ErrBadEntryArray, entriesLBA)
	}

	entriesBuf := make([]byte, entriesLen)

	if err := readFullAt(r, entriesBuf, int64(entriesOffset)); err != nil {
		return nil, nil, fmt.Errorf("failed to read %s entries: %w", copyName, err)
	}

	if stored, computed := hdr.EntriesChecksum(), crc32.ChecksumIEEE(entriesBuf); stored != computed {
		return nil, nil, fmt.Errorf("%s header: %w: stored 0x%08x, computed 0x%08x",
			copyName, ErrEntryChecksumMismatch, stored, computed)
	}

	logger.Debug("validated header",
		zap.String("copy", string(copyName)),
		zap.Uint64("lba", lba),
		zap.Uint32("entries", numEntries),
	)

	return hdr, entriesBuf, nil
}

// decodeEntries parses the non-zero entry slots and checks the layout
// invariants: every range inside the usable window, no overlaps.
func decodeEntries(hdr gptstructs.Header, entriesBuf []byte) ([]Partition, error) {
	var parts []Partition

	zeroGUID := make([]byte, 16)

	for i := 0; i < int(hdr.NumEntries()); i++ {
		entry := gptstructs.Entry(entriesBuf[i*gptstructs.EntrySize : (i+1)*gptstructs.EntrySize])

		if bytes.Equal(entry.TypeGUID(), zeroGUID) {
			continue
		}

		firstLBA, lastLBA := entry.StartingLBA(), entry.EndingLBA()

		if firstLBA > lastLBA {
			return nil, fmt.Errorf("%w: entry %d: LBA %d..%d is inverted", ErrOutOfBounds, i, firstLBA, lastLBA)
		}

		if firstLBA < hdr.FirstUsableLBA() || lastLBA > hdr.LastUsableLBA() {
			return nil, fmt.Errorf("%w: entry %d: LBA %d..%d outside %d..%d",
				ErrOutOfBounds, i, firstLBA, lastLBA, hdr.FirstUsableLBA(), hdr.LastUsableLBA())
		}

		typeGUID, err := uuid.FromBytes(gptutil.GUIDToUUID(entry.TypeGUID()))
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid type GUID: %w", i, err)
		}

		partGUID, err := uuid.FromBytes(gptutil.GUIDToUUID(entry.UniqueGUID()))
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid partition GUID: %w", i, err)
		}

		name, err := gptutil.DecodeName(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		parts = append(parts, Partition{
			Name:     name,
			TypeGUID: typeGUID,
			PartGUID: partGUID,
			FirstLBA: firstLBA,
			LastLBA:  lastLBA,
			Flags:    entry.Attributes(),
		})
	}

	byStart := slices.Clone(parts)
	slices.SortFunc(byStart, func(a, b Partition) int {
		return cmp.Compare(a.FirstLBA, b.FirstLBA)
	})

	for i := 1; i < len(byStart); i++ {
		if byStart[i].FirstLBA <= byStart[i-1].LastLBA {
			return nil, fmt.Errorf("%w: %q (%d..%d) and %q (%d..%d)",
				ErrOverlappingPartitions,
				byStart[i-1].Name, byStart[i-1].FirstLBA, byStart[i-1].LastLBA,
				byStart[i].Name, byStart[i].FirstLBA, byStart[i].LastLBA)
		}
	}

	return parts, nil
}

// readFullAt is io.ReadFull for io.ReaderAt.
func readFullAt(r io.ReaderAt, buf []byte, offset int64) error {
	for n := 0; n < len(buf); {
		m, err := r.ReadAt(buf[n:], offset)

		n += m
		offset += int64(m)

		if err != nil {
			if err == io.EOF && n == len(buf) {
				return nil
			}

			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}

			return err
		}
	}

	return nil
}
