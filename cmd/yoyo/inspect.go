// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-pointer"
	"github.com/spf13/cobra"

	"github.com/beersonthewall/yoyo/gpt"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Print the partition table of a disk image",

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// partitionRow is one line of the inspect table.
type partitionRow struct {
	Index    int
	Type     string
	GUID     uuid.UUID
	Label    *string
	FirstLBA uint64
	LastLBA  uint64
	Size     string
}

func runInspect(cmd *cobra.Command, path string) error {
	img, err := decodeImage(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	geometry := img.Geometry()

	fmt.Printf("%s: %s (%d sectors of %d bytes)\n",
		path, humanize.IBytes(geometry.Bytes()), geometry.TotalSectors, geometry.SectorSize)
	fmt.Printf("disk GUID:      %s\n", img.DiskGUID())
	fmt.Printf("primary header: LBA %d, entries at LBA %d\n", geometry.PrimaryHeaderLBA(), geometry.PrimaryEntriesLBA())
	fmt.Printf("backup header:  LBA %d, entries at LBA %d\n", geometry.BackupHeaderLBA(), geometry.BackupEntriesLBA())
	fmt.Printf("usable LBAs:    %d..%d\n", geometry.FirstUsableLBA(), geometry.LastUsableLBA())

	rows := xslices.Map(img.Partitions(), func(part gpt.Partition) partitionRow {
		row := partitionRow{
			Type:     gpt.TypeName(part.TypeGUID),
			GUID:     part.PartGUID,
			FirstLBA: part.FirstLBA,
			LastLBA:  part.LastLBA,
			Size:     humanize.IBytes(part.Sectors() * uint64(geometry.SectorSize)),
		}

		if part.Name != "" {
			row.Label = pointer.To(part.Name)
		}

		return row
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 8, 2, ' ', 0)

	fmt.Fprintln(w, "#\tSTART\tEND\tSIZE\tTYPE\tGUID\tNAME")

	for i, row := range rows {
		row.Index = i + 1

		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			row.Index, row.FirstLBA, row.LastLBA, row.Size, row.Type, row.GUID,
			pointer.SafeDeref(row.Label))
	}

	return w.Flush()
}
