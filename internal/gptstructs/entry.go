// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gptstructs

import "encoding/binary"

// Entry is a raw GPT partition entry backed by EntrySize bytes.
type Entry []byte

// TypeGUID returns the on-disk (mixed-endian) partition type GUID bytes.
func (e Entry) TypeGUID() []byte { return e[0:16] }

// PutTypeGUID sets the on-disk (mixed-endian) partition type GUID bytes.
func (e Entry) PutTypeGUID(v []byte) { copy(e[0:16], v) }

// UniqueGUID returns the on-disk (mixed-endian) unique partition GUID bytes.
func (e Entry) UniqueGUID() []byte { return e[16:32] }

// PutUniqueGUID sets the on-disk (mixed-endian) unique partition GUID bytes.
func (e Entry) PutUniqueGUID(v []byte) { copy(e[16:32], v) }

// StartingLBA returns the first LBA of the partition.
func (e Entry) StartingLBA() uint64 { return binary.LittleEndian.Uint64(e[32:40]) }

// PutStartingLBA sets the first LBA of the partition.
func (e Entry) PutStartingLBA(v uint64) { binary.LittleEndian.PutUint64(e[32:40], v) }

// EndingLBA returns the last LBA of the partition (inclusive).
func (e Entry) EndingLBA() uint64 { return binary.LittleEndian.Uint64(e[40:48]) }

// PutEndingLBA sets the last LBA of the partition (inclusive).
func (e Entry) PutEndingLBA(v uint64) { binary.LittleEndian.PutUint64(e[40:48], v) }

// Attributes returns the partition attribute flags.
func (e Entry) Attributes() uint64 { return binary.LittleEndian.Uint64(e[48:56]) }

// PutAttributes sets the partition attribute flags.
func (e Entry) PutAttributes(v uint64) { binary.LittleEndian.PutUint64(e[48:56], v) }

// Name returns the raw UTF-16LE partition name bytes (null-padded).
func (e Entry) Name() []byte { return e[56:128] }

// PutName sets the raw UTF-16LE partition name bytes.
func (e Entry) PutName(v []byte) { copy(e[56:128], v) }
