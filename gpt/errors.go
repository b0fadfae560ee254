// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import "errors"

// Layout errors reported by Build.
//
// Errors are reported at build time, never later at encode time: an Image
// that was successfully built always encodes.
var (
	// ErrImageTooSmall is returned when the geometry cannot fit the GPT structures.
	ErrImageTooSmall = errors.New("image too small for GPT")

	// ErrInsufficientSpace is returned when a partition does not fit in the usable space.
	ErrInsufficientSpace = errors.New("insufficient usable space")

	// ErrTooManyPartitions is returned when the request count exceeds the entry array capacity.
	ErrTooManyPartitions = errors.New("too many partitions")

	// ErrZeroSizePartition is returned for a partition request of zero sectors.
	ErrZeroSizePartition = errors.New("zero-size partition")

	// ErrZeroTypeGUID is returned for a partition request without a type GUID,
	// as an all-zero type GUID marks an unused entry slot on disk.
	ErrZeroTypeGUID = errors.New("partition has zero type GUID")

	// ErrNameTooLong is returned when a partition name exceeds 72 bytes of UTF-16.
	ErrNameTooLong = errors.New("partition name too long")
)

// Validation errors reported by Decode.
//
// Each error is wrapped with the header copy (primary or backup) it was
// detected at; match with errors.Is.
var (
	// ErrBadSignature is returned when the header signature is not "EFI PART".
	ErrBadSignature = errors.New("bad GPT header signature")

	// ErrBadHeaderSize is returned when the declared header size is unexpected.
	ErrBadHeaderSize = errors.New("bad GPT header size")

	// ErrHeaderChecksumMismatch is returned when the stored header CRC32 does not verify.
	ErrHeaderChecksumMismatch = errors.New("header checksum mismatch")

	// ErrEntryChecksumMismatch is returned when the stored entry array CRC32 does not verify.
	ErrEntryChecksumMismatch = errors.New("partition entry array checksum mismatch")

	// ErrBadEntryArray is returned when the declared entry array geometry does not
	// fit the image.
	ErrBadEntryArray = errors.New("bad partition entry array geometry")

	// ErrPrimaryBackupMismatch is returned when the primary and backup headers
	// disagree on logical content.
	ErrPrimaryBackupMismatch = errors.New("primary and backup headers diverge")

	// ErrOutOfBounds is returned when a partition entry lies outside the usable window.
	ErrOutOfBounds = errors.New("partition outside usable range")

	// ErrOverlappingPartitions is returned when two partition entries overlap.
	ErrOverlappingPartitions = errors.New("overlapping partitions")
)
