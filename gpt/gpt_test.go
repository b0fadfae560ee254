// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt_test

import (
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beersonthewall/yoyo/gpt"
)

// patternReader is a deterministic randomness source for reproducible GUIDs.
type patternReader byte

func (r *patternReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(*r)
		*r++
	}

	return len(p), nil
}

func testGeometry() gpt.Geometry {
	return gpt.Geometry{TotalSectors: 93750, SectorSize: 512}
}

func buildEFIImage(t *testing.T, opts ...gpt.Option) *gpt.Image {
	t.Helper()

	opts = append([]gpt.Option{
		gpt.WithDiskGUID(uuid.MustParse("D815C311-BDED-43FE-A91A-DCBE0D8025D5")),
	}, opts...)

	img, err := gpt.Build(testGeometry(), []gpt.PartitionRequest{
		{
			Size:       91669,
			Type:       gpt.TypeEFISystemPartition,
			Name:       "EFI",
			UniqueGUID: uuid.MustParse("DA66737E-1ED4-4DDF-B98C-70CEBFE3ADA0"),
		},
	}, opts...)
	require.NoError(t, err)

	return img
}

func TestBuildEFIImage(t *testing.T) {
	geom := testGeometry()

	assert.EqualValues(t, 1, geom.PrimaryHeaderLBA())
	assert.EqualValues(t, 2, geom.PrimaryEntriesLBA())
	assert.EqualValues(t, 34, geom.FirstUsableLBA())
	assert.EqualValues(t, 93716, geom.LastUsableLBA())
	assert.EqualValues(t, 93717, geom.BackupEntriesLBA())
	assert.EqualValues(t, 93749, geom.BackupHeaderLBA())

	img := buildEFIImage(t)

	parts := img.Partitions()
	require.Len(t, parts, 1)

	assert.EqualValues(t, 2048, parts[0].FirstLBA)
	assert.EqualValues(t, 93716, parts[0].LastLBA)
	assert.EqualValues(t, 91669, parts[0].Sectors())
	assert.Equal(t, "EFI", parts[0].Name)
	assert.Equal(t, gpt.TypeEFISystemPartition, parts[0].TypeGUID)

	offset, length, err := img.PartitionByteRange(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2048*512, offset)
	assert.EqualValues(t, 91669*512, length)

	_, _, err = img.PartitionByteRange(1)
	assert.Error(t, err)
}

func TestEncodeEFIImage(t *testing.T) {
	img := buildEFIImage(t)

	buf := img.Encode()
	require.Len(t, buf, 93750*512)

	// protective MBR: boot signature and the 0xEE entry
	assert.Equal(t, byte(0x55), buf[510])
	assert.Equal(t, byte(0xAA), buf[511])
	assert.Equal(t, byte(0xEE), buf[446+4])

	// primary header at LBA 1, backup header at the last LBA
	assert.Equal(t, []byte("EFI PART"), buf[512:520])
	assert.Equal(t, []byte("EFI PART"), buf[93749*512:93749*512+8])
}

func TestRoundTrip(t *testing.T) {
	for _, test := range []struct {
		name string

		geometry gpt.Geometry
		requests []gpt.PartitionRequest
		opts     []gpt.Option
	}{
		{
			name:     "no partitions",
			geometry: gpt.Geometry{TotalSectors: 4096, SectorSize: 512},
		},
		{
			name:     "single EFI",
			geometry: testGeometry(),
			requests: []gpt.PartitionRequest{
				{Size: 91669, Type: gpt.TypeEFISystemPartition, Name: "EFI"},
			},
		},
		{
			name:     "mixed types and flags",
			geometry: gpt.Geometry{TotalSectors: 65536, SectorSize: 512},
			requests: []gpt.PartitionRequest{
				{Size: 2048, Type: gpt.TypeEFISystemPartition, Name: "boot", Flags: 1 << 2},
				{Size: 8192, Type: gpt.TypeLinuxFilesystem, Name: "данные"},
				{Size: 1000, Type: gpt.TypeLinuxSwap, Name: "引导"},
			},
		},
		{
			name:     "unaligned sizes with custom alignment",
			geometry: gpt.Geometry{TotalSectors: 16384, SectorSize: 512},
			requests: []gpt.PartitionRequest{
				{Size: 33, Type: gpt.TypeLinuxFilesystem, Name: "a"},
				{Size: 97, Type: gpt.TypeLinuxFilesystem, Name: "b"},
			},
			opts: []gpt.Option{gpt.WithAlignment(64)},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			rng := patternReader(42)

			opts := append([]gpt.Option{gpt.WithRand(&rng)}, test.opts...)

			img, err := gpt.Build(test.geometry, test.requests, opts...)
			require.NoError(t, err)

			decoded, err := gpt.Decode(img.Encode())
			require.NoError(t, err)

			assert.Equal(t, img, decoded)
			assert.Equal(t, img.DiskGUID(), decoded.DiskGUID())
			assert.Equal(t, img.Partitions(), decoded.Partitions())
		})
	}
}

func TestAlignment(t *testing.T) {
	rng := patternReader(1)

	img, err := gpt.Build(gpt.Geometry{TotalSectors: 16384, SectorSize: 512}, []gpt.PartitionRequest{
		{Size: 1, Type: gpt.TypeLinuxFilesystem, Name: "p1"},
		{Size: 100, Type: gpt.TypeLinuxFilesystem, Name: "p2"},
		{Size: 5000, Type: gpt.TypeLinuxFilesystem, Name: "p3"},
	}, gpt.WithRand(&rng))
	require.NoError(t, err)

	for _, part := range img.Partitions() {
		assert.Zero(t, part.FirstLBA%2048, "partition %q starts at unaligned LBA %d", part.Name, part.FirstLBA)
	}

	// partitions must not overlap even with tiny sizes
	parts := img.Partitions()
	for i := 1; i < len(parts); i++ {
		assert.Greater(t, parts[i].FirstLBA, parts[i-1].LastLBA)
	}
}

func TestBuildErrors(t *testing.T) {
	rng := patternReader(7)

	geom := gpt.Geometry{TotalSectors: 4096, SectorSize: 512}

	_, err := gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 4096, Type: gpt.TypeLinuxFilesystem, Name: "big"},
	}, gpt.WithRand(&rng))
	assert.ErrorIs(t, err, gpt.ErrInsufficientSpace)

	// the two requests together exceed the usable space
	_, err = gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 1, Type: gpt.TypeLinuxFilesystem, Name: "small"},
		{Size: 2048, Type: gpt.TypeLinuxFilesystem, Name: "big"},
	}, gpt.WithRand(&rng))
	assert.ErrorIs(t, err, gpt.ErrInsufficientSpace)

	// an absurd size must fail cleanly, not wrap around past the usable window
	_, err = gpt.Build(geom, []gpt.PartitionRequest{
		{Size: math.MaxUint64, Type: gpt.TypeLinuxFilesystem, Name: "huge"},
	}, gpt.WithRand(&rng))
	assert.ErrorIs(t, err, gpt.ErrInsufficientSpace)

	_, err = gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 1, Type: gpt.TypeLinuxFilesystem, Name: "far"},
	}, gpt.WithRand(&rng), gpt.WithAlignment(math.MaxUint64))
	assert.ErrorIs(t, err, gpt.ErrInsufficientSpace)

	_, err = gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 0, Type: gpt.TypeLinuxFilesystem, Name: "empty"},
	}, gpt.WithRand(&rng))
	assert.ErrorIs(t, err, gpt.ErrZeroSizePartition)

	// an all-zero type GUID would encode as an unused slot and vanish on decode
	_, err = gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 1, Name: "untyped"},
	}, gpt.WithRand(&rng))
	assert.ErrorIs(t, err, gpt.ErrZeroTypeGUID)

	_, err = gpt.Build(geom, []gpt.PartitionRequest{
		{Size: 1, Type: gpt.TypeLinuxFilesystem, Name: strings.Repeat("x", 37)},
	}, gpt.WithRand(&rng))
	assert.ErrorIs(t, err, gpt.ErrNameTooLong)

	_, err = gpt.Build(gpt.Geometry{TotalSectors: 10, SectorSize: 512}, nil)
	assert.ErrorIs(t, err, gpt.ErrImageTooSmall)
}

func TestPartitionCapacity(t *testing.T) {
	rng := patternReader(3)

	geom := gpt.Geometry{TotalSectors: 2048, SectorSize: 512}

	requests := make([]gpt.PartitionRequest, 0, 129)
	for i := 0; i < 128; i++ {
		requests = append(requests, gpt.PartitionRequest{Size: 1, Type: gpt.TypeLinuxFilesystem, Name: "s"})
	}

	img, err := gpt.Build(geom, requests, gpt.WithRand(&rng), gpt.WithAlignment(1))
	require.NoError(t, err)
	assert.Len(t, img.Partitions(), 128)

	// a full table still round-trips
	decoded, err := gpt.Decode(img.Encode())
	require.NoError(t, err)
	assert.Equal(t, img, decoded)

	requests = append(requests, gpt.PartitionRequest{Size: 1, Type: gpt.TypeLinuxFilesystem, Name: "s"})

	_, err = gpt.Build(geom, requests, gpt.WithRand(&rng), gpt.WithAlignment(1))
	assert.ErrorIs(t, err, gpt.ErrTooManyPartitions)
}

func TestChecksumSensitivity(t *testing.T) {
	img := buildEFIImage(t)

	// flip a bit in the primary header (first usable LBA field)
	buf := img.Encode()
	buf[512+40] ^= 1

	_, err := gpt.Decode(buf)
	assert.ErrorIs(t, err, gpt.ErrHeaderChecksumMismatch)
	assert.Contains(t, err.Error(), "primary")

	// flip a bit in the primary entry array
	buf = img.Encode()
	buf[2*512] ^= 1

	_, err = gpt.Decode(buf)
	assert.ErrorIs(t, err, gpt.ErrEntryChecksumMismatch)
	assert.Contains(t, err.Error(), "primary")

	// a flip in a region no checksum covers is not detected
	buf = img.Encode()
	buf[446] ^= 0x80

	_, err = gpt.Decode(buf)
	assert.NoError(t, err)
}

func TestDeterministicBuild(t *testing.T) {
	build := func() *gpt.Image {
		rng := patternReader(99)

		img, err := gpt.Build(testGeometry(), []gpt.PartitionRequest{
			{Size: 91669, Type: gpt.TypeEFISystemPartition, Name: "EFI"},
		}, gpt.WithRand(&rng))
		require.NoError(t, err)

		return img
	}

	img1, img2 := build(), build()

	assert.Equal(t, img1, img2)
	assert.Equal(t, img1.Encode(), img2.Encode())

	// generated identifiers must carry RFC-4122 version 4 bits
	assert.Equal(t, uuid.Version(4), img1.DiskGUID().Version())
	assert.Equal(t, uuid.RFC4122, img1.DiskGUID().Variant())
	assert.Equal(t, uuid.Version(4), img1.Partitions()[0].PartGUID.Version())
	assert.Equal(t, uuid.RFC4122, img1.Partitions()[0].PartGUID.Variant())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "EFI System", gpt.TypeName(gpt.TypeEFISystemPartition))
	assert.Equal(t, "Linux filesystem", gpt.TypeName(gpt.TypeLinuxFilesystem))

	unknown := uuid.MustParse("00112233-4455-6677-8899-AABBCCDDEEFF")
	assert.Equal(t, unknown.String(), gpt.TypeName(unknown))
}
