// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beersonthewall/yoyo/gpt"
)

// regionWriter records every write without materializing the image.
type regionWriter struct {
	writes map[int64][]byte
}

func (w *regionWriter) WriteAt(p []byte, off int64) (int, error) {
	if w.writes == nil {
		w.writes = map[int64][]byte{}
	}

	buf := make([]byte, len(p))
	copy(buf, p)
	w.writes[off] = buf

	return len(p), nil
}

// bufWriter adapts a byte slice to io.WriterAt for tests.
type bufWriter []byte

func (b bufWriter) WriteAt(p []byte, off int64) (int, error) {
	return copy(b[off:], p), nil
}

func TestEncodeToMatchesEncode(t *testing.T) {
	img := buildEFIImage(t)

	buf := make([]byte, img.Geometry().Bytes())
	require.NoError(t, img.EncodeTo(bufWriter(buf)))

	assert.Equal(t, img.Encode(), buf)
}

func TestEncodeToIsSparse(t *testing.T) {
	rng := patternReader(17)

	// ~2.5 TiB disk: the protective MBR cannot express the full length
	geom := gpt.Geometry{TotalSectors: 5 << 30, SectorSize: 512}

	img, err := gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 1 << 21, Type: gpt.TypeEFISystemPartition, Name: "EFI"},
	}, gpt.WithRand(&rng))
	require.NoError(t, err)

	var w regionWriter

	require.NoError(t, img.EncodeTo(&w))

	// MBR, primary header + entries, backup header + entries
	assert.Len(t, w.writes, 5)

	mbr := w.writes[0]
	require.NotNil(t, mbr)

	assert.Equal(t, byte(0xEE), mbr[446+4])
	assert.EqualValues(t, 0xFFFFFFFF, binary.LittleEndian.Uint32(mbr[446+12:446+16]))
	assert.Equal(t, []byte{0x55, 0xAA}, mbr[510:512])

	// all metadata regions fit in a few megabytes, nothing else was written
	var total int
	for _, buf := range w.writes {
		total += len(buf)
	}

	assert.Less(t, total, 1<<20)
}
