// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptstructs provides accessors over raw GPT on-disk structures.
//
// All multi-byte fields are little-endian, GUID fields are stored in the
// mixed-endian on-disk order (see the gptutil package for conversion).
package gptstructs

// HeaderSignature is the signature of the GPT header ("EFI PART").
const HeaderSignature = 0x5452415020494645

// HeaderRevision is the GPT revision 1.0 as encoded in the header.
const HeaderRevision = 0x00010000

// HeaderSize is the number of meaningful bytes in the GPT header.
//
// The header occupies a full sector, but only the first HeaderSize bytes
// are covered by the header checksum; the rest must be zero.
const HeaderSize = 92

// EntrySize is the size of a single partition entry.
const EntrySize = 128

// NumEntries is the number of entries in the partition entry array.
const NumEntries = 128

// EntriesLength is the total length of the partition entry array in bytes.
const EntriesLength = EntrySize * NumEntries
