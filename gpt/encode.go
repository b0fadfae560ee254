// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"slices"

	"github.com/beersonthewall/yoyo/internal/gptstructs"
	"github.com/beersonthewall/yoyo/internal/gptutil"
)

// Encode serializes the image into a fully materialized byte buffer of
// geometry.TotalSectors * geometry.SectorSize bytes.
//
// Encode never fails for an Image produced by Build or Decode: all
// validation happens at construction time.
func (img *Image) Encode() []byte {
	buf := make([]byte, img.geometry.Bytes())

	if err := img.EncodeTo(sliceWriter(buf)); err != nil {
		// a validated Image always encodes into its own geometry
		panic(err)
	}

	return buf
}

// EncodeTo writes the GPT metadata regions (protective MBR, headers, entry
// arrays) at their absolute offsets.
//
// Regions not written stay untouched, so a writer backed by a sparse file
// produces the same image as Encode without materializing the payload
// space.
func (img *Image) EncodeTo(w io.WriterAt) error {
	geom := img.geometry

	if _, err := w.WriteAt(img.protectiveMBR(), 0); err != nil {
		return fmt.Errorf("failed to write protective MBR: %w", err)
	}

	entriesBuf, err := img.encodeEntries()
	if err != nil {
		return err
	}

	entriesChecksum := crc32.ChecksumIEEE(entriesBuf)

	// shared header template; the GPT header occupies a whole sector
	header := gptstructs.Header(make([]byte, geom.SectorSize))
	header.PutSignature(gptstructs.HeaderSignature)
	header.PutRevision(gptstructs.HeaderRevision)
	header.PutHeaderSize(gptstructs.HeaderSize)
	header.PutFirstUsableLBA(geom.FirstUsableLBA())
	header.PutLastUsableLBA(geom.LastUsableLBA())
	header.PutDiskGUID(gptutil.UUIDToGUID(img.diskGUID[:]))
	header.PutNumEntries(gptstructs.NumEntries)
	header.PutEntrySize(gptstructs.EntrySize)
	header.PutEntriesChecksum(entriesChecksum)

	primaryHeader := gptstructs.Header(slices.Clone(header))
	primaryHeader.PutMyLBA(geom.PrimaryHeaderLBA())
	primaryHeader.PutAlternateLBA(geom.BackupHeaderLBA())
	primaryHeader.PutEntriesLBA(geom.PrimaryEntriesLBA())
	primaryHeader.PutHeaderChecksum(primaryHeader.CalculateChecksum())

	if _, err = w.WriteAt(entriesBuf, int64(geom.PrimaryEntriesLBA())*int64(geom.SectorSize)); err != nil {
		return fmt.Errorf("failed to write primary entries: %w", err)
	}

	if _, err = w.WriteAt(primaryHeader, int64(geom.PrimaryHeaderLBA())*int64(geom.SectorSize)); err != nil {
		return fmt.Errorf("failed to write primary header: %w", err)
	}

	backupHeader := gptstructs.Header(slices.Clone(header))
	backupHeader.PutMyLBA(geom.BackupHeaderLBA())
	backupHeader.PutAlternateLBA(geom.PrimaryHeaderLBA())
	backupHeader.PutEntriesLBA(geom.BackupEntriesLBA())
	backupHeader.PutHeaderChecksum(backupHeader.CalculateChecksum())

	if _, err = w.WriteAt(entriesBuf, int64(geom.BackupEntriesLBA())*int64(geom.SectorSize)); err != nil {
		return fmt.Errorf("failed to write backup entries: %w", err)
	}

	if _, err = w.WriteAt(backupHeader, int64(geom.BackupHeaderLBA())*int64(geom.SectorSize)); err != nil {
		return fmt.Errorf("failed to write backup header: %w", err)
	}

	return nil
}

// encodeEntries serializes the full 128-slot entry array; unused slots
// stay zero, and the array checksum covers them too.
func (img *Image) encodeEntries() ([]byte, error) {
	entriesBuf := make([]byte, gptstructs.EntriesLength)

	for i, part := range img.parts {
		entry := gptstructs.Entry(entriesBuf[i*gptstructs.EntrySize : (i+1)*gptstructs.EntrySize])
		entry.PutTypeGUID(gptutil.UUIDToGUID(part.TypeGUID[:]))
		entry.PutUniqueGUID(gptutil.UUIDToGUID(part.PartGUID[:]))
		entry.PutStartingLBA(part.FirstLBA)
		entry.PutEndingLBA(part.LastLBA)
		entry.PutAttributes(part.Flags)

		nameBuf, err := gptutil.EncodeName(part.Name)
		if err != nil {
			return nil, err
		}

		entry.PutName(nameBuf)
	}

	return entriesBuf, nil
}

// protectiveMBR builds the sector 0 contents: a single 0xEE partition
// record spanning the whole disk and the boot signature.
func (img *Image) protectiveMBR() []byte {
	sector := make([]byte, img.geometry.SectorSize)

	b := sector[446 : 446+16]

	// partition type: protective EFI entry
	b[4] = 0xEE

	// CHS for the start of the partition
	copy(b[1:4], []byte{0x00, 0x02, 0x00})

	// CHS for the end of the partition
	copy(b[5:8], []byte{0xFF, 0xFF, 0xFF})

	// partition start LBA
	binary.LittleEndian.PutUint32(b[8:12], 1)

	// partition length in sectors, capped at what fits in 32 bits
	if img.geometry.LastLBA() > math.MaxUint32 {
		binary.LittleEndian.PutUint32(b[12:16], uint32(math.MaxUint32))
	} else {
		binary.LittleEndian.PutUint32(b[12:16], uint32(img.geometry.LastLBA()))
	}

	// boot signature in the final two bytes of the sector
	sector[len(sector)-2], sector[len(sector)-1] = 0x55, 0xAA

	return sector
}

// sliceWriter adapts a byte slice to io.WriterAt.
type sliceWriter []byte

func (s sliceWriter) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s)) || int64(len(s))-off < int64(len(p)) {
		return 0, fmt.Errorf("write of %d bytes at %d outside buffer of %d bytes", len(p), off, len(s))
	}

	return copy(s[off:], p), nil
}
