// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAlignment is the partition start alignment in sectors (1 MiB at
// 512-byte sectors), matching common partitioning tools.
const DefaultAlignment = 2048

// DefaultSectorSize is the logical sector size assumed by Decode unless
// overridden with WithSectorSize.
const DefaultSectorSize = 512

// Options is a set of options for building and decoding images.
type Options struct {
	// DiskGUID is a GUID for the disk.
	//
	// If not set, a new GUID is generated at build time.
	DiskGUID uuid.UUID

	// Alignment is the partition start alignment in sectors.
	Alignment uint64

	// SectorSize is the logical sector size used by Decode.
	SectorSize uint

	// Rand is the randomness source for generated GUIDs.
	//
	// If nil, crypto/rand is used. Supplying a deterministic reader makes
	// builds reproducible.
	Rand io.Reader

	// Logger for debug tracing.
	Logger *zap.Logger
}

// Option is a function that sets some option.
type Option func(*Options)

// WithDiskGUID is an option to set the disk GUID.
func WithDiskGUID(guid uuid.UUID) Option {
	return func(o *Options) {
		o.DiskGUID = guid
	}
}

// WithAlignment is an option to set the partition start alignment in sectors.
func WithAlignment(sectors uint64) Option {
	return func(o *Options) {
		o.Alignment = sectors
	}
}

// WithSectorSize is an option to set the logical sector size for Decode.
func WithSectorSize(size uint) Option {
	return func(o *Options) {
		o.SectorSize = size
	}
}

// WithRand is an option to set the randomness source for generated GUIDs.
func WithRand(r io.Reader) Option {
	return func(o *Options) {
		o.Rand = r
	}
}

// WithLogger is an option to set the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func makeOptions(opts ...Option) Options {
	options := Options{
		Alignment:  DefaultAlignment,
		SectorSize: DefaultSectorSize,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Alignment == 0 {
		options.Alignment = 1
	}

	if options.SectorSize == 0 {
		options.SectorSize = DefaultSectorSize
	}

	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	return options
}

func (o Options) newGUID() (uuid.UUID, error) {
	if o.Rand != nil {
		return uuid.NewRandomFromReader(o.Rand)
	}

	return uuid.NewRandom()
}
