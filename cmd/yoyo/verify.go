// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/beersonthewall/yoyo/gpt"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <image>",
	Short: "Validate the GPT structures of a disk image",
	Long: `Validate every checksum and cross-reference of a GPT disk image.

The exit status is non-zero if any structural check fails; the error names
the failed check and the header copy it was detected at.`,

	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runVerify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func decodeImage(path string) (*gpt.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close() //nolint:errcheck

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return gpt.DecodeFrom(f, uint64(st.Size()),
		gpt.WithSectorSize(sectorSize),
		gpt.WithLogger(logger),
	)
}

func runVerify(path string) error {
	img, err := decodeImage(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	geometry := img.Geometry()

	fmt.Printf("%s: OK\n", path)
	fmt.Printf("  size:       %s (%d sectors)\n", humanize.IBytes(geometry.Bytes()), geometry.TotalSectors)
	fmt.Printf("  disk GUID:  %s\n", img.DiskGUID())
	fmt.Printf("  partitions: %d\n", len(img.Partitions()))

	return nil
}
