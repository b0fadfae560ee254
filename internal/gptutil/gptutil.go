// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptutil provides utility functions for GPT implementation.
package gptutil

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// GUIDToUUID converts from on-disk (mixed-endian) GUID format to RFC-4122 UUID byte order.
func GUIDToUUID(g []byte) []byte {
	return append(
		[]byte{
			g[3], g[2], g[1], g[0],
			g[5], g[4],
			g[7], g[6],
			g[8], g[9],
		},
		g[10:16]...,
	)
}

// UUIDToGUID converts from RFC-4122 UUID byte order to on-disk (mixed-endian) GUID format.
func UUIDToGUID(u []byte) []byte {
	return GUIDToUUID(u)
}

// MaxNameLength is the maximum encoded length of a partition name in bytes.
const MaxNameLength = 72

// EncodeName encodes a partition name to UTF-16LE.
//
// The result is at most MaxNameLength bytes, not padded.
func EncodeName(name string) ([]byte, error) {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	nameBuf, err := utf16.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to encode partition name: %w", err)
	}

	if len(nameBuf) > MaxNameLength {
		return nil, fmt.Errorf("partition name %q too long: %d bytes", name, len(nameBuf))
	}

	return nameBuf, nil
}

// DecodeName decodes a null-padded UTF-16LE partition name.
func DecodeName(raw []byte) (string, error) {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	name, err := utf16.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode partition name: %w", err)
	}

	return string(bytes.TrimRight(name, "\x00")), nil
}
