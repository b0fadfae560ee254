// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gptstructs

import (
	"encoding/binary"
	"hash/crc32"
	"slices"
)

// Header is a raw GPT header backed by at least HeaderSize bytes.
type Header []byte

// Signature returns the header signature.
func (h Header) Signature() uint64 { return binary.LittleEndian.Uint64(h[0:8]) }

// PutSignature sets the header signature.
func (h Header) PutSignature(v uint64) { binary.LittleEndian.PutUint64(h[0:8], v) }

// Revision returns the header revision.
func (h Header) Revision() uint32 { return binary.LittleEndian.Uint32(h[8:12]) }

// PutRevision sets the header revision.
func (h Header) PutRevision(v uint32) { binary.LittleEndian.PutUint32(h[8:12], v) }

// HeaderSize returns the declared header size.
func (h Header) HeaderSize() uint32 { return binary.LittleEndian.Uint32(h[12:16]) }

// PutHeaderSize sets the declared header size.
func (h Header) PutHeaderSize(v uint32) { binary.LittleEndian.PutUint32(h[12:16], v) }

// HeaderChecksum returns the stored header CRC32.
func (h Header) HeaderChecksum() uint32 { return binary.LittleEndian.Uint32(h[16:20]) }

// PutHeaderChecksum sets the header CRC32.
func (h Header) PutHeaderChecksum(v uint32) { binary.LittleEndian.PutUint32(h[16:20], v) }

// MyLBA returns the LBA this header copy lives at.
func (h Header) MyLBA() uint64 { return binary.LittleEndian.Uint64(h[24:32]) }

// PutMyLBA sets the LBA this header copy lives at.
func (h Header) PutMyLBA(v uint64) { binary.LittleEndian.PutUint64(h[24:32], v) }

// AlternateLBA returns the LBA of the other header copy.
func (h Header) AlternateLBA() uint64 { return binary.LittleEndian.Uint64(h[32:40]) }

// PutAlternateLBA sets the LBA of the other header copy.
func (h Header) PutAlternateLBA(v uint64) { binary.LittleEndian.PutUint64(h[32:40], v) }

// FirstUsableLBA returns the first usable LBA.
func (h Header) FirstUsableLBA() uint64 { return binary.LittleEndian.Uint64(h[40:48]) }

// PutFirstUsableLBA sets the first usable LBA.
func (h Header) PutFirstUsableLBA(v uint64) { binary.LittleEndian.PutUint64(h[40:48], v) }

// LastUsableLBA returns the last usable LBA.
func (h Header) LastUsableLBA() uint64 { return binary.LittleEndian.Uint64(h[48:56]) }

// PutLastUsableLBA sets the last usable LBA.
func (h Header) PutLastUsableLBA(v uint64) { binary.LittleEndian.PutUint64(h[48:56], v) }

// DiskGUID returns the on-disk (mixed-endian) disk GUID bytes.
func (h Header) DiskGUID() []byte { return h[56:72] }

// PutDiskGUID sets the on-disk (mixed-endian) disk GUID bytes.
func (h Header) PutDiskGUID(v []byte) { copy(h[56:72], v) }

// EntriesLBA returns the LBA of the partition entry array.
func (h Header) EntriesLBA() uint64 { return binary.LittleEndian.Uint64(h[72:80]) }

// PutEntriesLBA sets the LBA of the partition entry array.
func (h Header) PutEntriesLBA(v uint64) { binary.LittleEndian.PutUint64(h[72:80], v) }

// NumEntries returns the declared number of partition entries.
func (h Header) NumEntries() uint32 { return binary.LittleEndian.Uint32(h[80:84]) }

// PutNumEntries sets the declared number of partition entries.
func (h Header) PutNumEntries(v uint32) { binary.LittleEndian.PutUint32(h[80:84], v) }

// EntrySize returns the declared size of a partition entry.
func (h Header) EntrySize() uint32 { return binary.LittleEndian.Uint32(h[84:88]) }

// PutEntrySize sets the declared size of a partition entry.
func (h Header) PutEntrySize(v uint32) { binary.LittleEndian.PutUint32(h[84:88], v) }

// EntriesChecksum returns the stored partition entry array CRC32.
func (h Header) EntriesChecksum() uint32 { return binary.LittleEndian.Uint32(h[88:92]) }

// PutEntriesChecksum sets the partition entry array CRC32.
func (h Header) PutEntriesChecksum(v uint32) { binary.LittleEndian.PutUint32(h[88:92], v) }

// CalculateChecksum calculates the checksum of the header.
//
// The checksum covers the first HeaderSize bytes with the checksum field
// itself zeroed out.
func (h Header) CalculateChecksum() uint32 {
	b := slices.Clone(h[:HeaderSize])

	b[16] = 0
	b[17] = 0
	b[18] = 0
	b[19] = 0

	return crc32.ChecksumIEEE(b)
}
