// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beersonthewall/yoyo/gpt"
)

var (
	createOutput     string
	createSize       string
	createDiskGUID   string
	createAlignment  uint64
	createPartitions []string
)

var partitionTypeAliases = map[string]uuid.UUID{
	"esp":        gpt.TypeEFISystemPartition,
	"bios":       gpt.TypeBIOSBoot,
	"linux":      gpt.TypeLinuxFilesystem,
	"swap":       gpt.TypeLinuxSwap,
	"msdata":     gpt.TypeMicrosoftBasicData,
	"msreserved": gpt.TypeMicrosoftReserved,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new GPT disk image",
	Long: `Create a raw disk image with a GPT partition table.

Examples:
  # empty table
  yoyo create -o disk.img -s 64MiB

  # bootable EFI layout with the boot filesystem embedded
  yoyo create -o disk.img -s 48MiB \
    -p type=esp,size=45MiB,name=EFI,content=esp.fat`,

	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCreate()
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createOutput, "output", "o", "", "output image filename")
	createCmd.Flags().StringVarP(&createSize, "size", "s", "", "total image size (e.g. 48MiB)")
	createCmd.Flags().StringVar(&createDiskGUID, "disk-guid", "", "disk GUID (random if not set)")
	createCmd.Flags().Uint64Var(&createAlignment, "align", gpt.DefaultAlignment, "partition alignment in sectors")
	createCmd.Flags().StringArrayVarP(&createPartitions, "partition", "p",
		nil, "partition spec: type=<alias|GUID>,size=<bytes>[,name=<str>][,guid=<GUID>][,content=<file>]")

	cobra.CheckErr(createCmd.MarkFlagRequired("output"))
	cobra.CheckErr(createCmd.MarkFlagRequired("size"))
}

// partitionSpec is one -p flag parsed into a request plus the optional
// payload to embed.
type partitionSpec struct {
	request gpt.PartitionRequest
	content string
}

func parsePartitionSpec(spec string, sectorSize uint) (partitionSpec, error) {
	var parsed partitionSpec

	for _, field := range strings.Split(spec, ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return parsed, fmt.Errorf("malformed partition field %q, expected key=value", field)
		}

		switch key {
		case "type":
			if typeGUID, ok := partitionTypeAliases[value]; ok {
				parsed.request.Type = typeGUID

				break
			}

			typeGUID, err := uuid.Parse(value)
			if err != nil {
				return parsed, fmt.Errorf("unknown partition type %q", value)
			}

			parsed.request.Type = typeGUID
		case "size":
			size, err := humanize.ParseBytes(value)
			if err != nil {
				return parsed, fmt.Errorf("invalid partition size %q: %w", value, err)
			}

			parsed.request.Size = (size + uint64(sectorSize) - 1) / uint64(sectorSize)
		case "name":
			parsed.request.Name = value
		case "guid":
			partGUID, err := uuid.Parse(value)
			if err != nil {
				return parsed, fmt.Errorf("invalid partition GUID %q: %w", value, err)
			}

			parsed.request.UniqueGUID = partGUID
		case "flags":
			flags, err := strconv.ParseUint(value, 0, 64)
			if err != nil {
				return parsed, fmt.Errorf("invalid partition flags %q: %w", value, err)
			}

			parsed.request.Flags = flags
		case "content":
			parsed.content = value
		default:
			return parsed, fmt.Errorf("unknown partition field %q", key)
		}
	}

	if parsed.request.Type == uuid.Nil {
		return parsed, fmt.Errorf("partition spec %q is missing a type", spec)
	}

	if parsed.request.Size == 0 {
		return parsed, fmt.Errorf("partition spec %q is missing a size", spec)
	}

	return parsed, nil
}

func runCreate() error {
	totalBytes, err := humanize.ParseBytes(createSize)
	if err != nil {
		return fmt.Errorf("invalid image size %q: %w", createSize, err)
	}

	if totalBytes == 0 || totalBytes%uint64(sectorSize) != 0 {
		return fmt.Errorf("image size %d is not a positive multiple of the sector size %d", totalBytes, sectorSize)
	}

	geometry := gpt.Geometry{
		TotalSectors: totalBytes / uint64(sectorSize),
		SectorSize:   sectorSize,
	}

	specs := make([]partitionSpec, 0, len(createPartitions))
	requests := make([]gpt.PartitionRequest, 0, len(createPartitions))

	for _, raw := range createPartitions {
		spec, err := parsePartitionSpec(raw, sectorSize)
		if err != nil {
			return err
		}

		specs = append(specs, spec)
		requests = append(requests, spec.request)
	}

	opts := []gpt.Option{
		gpt.WithLogger(logger),
		gpt.WithAlignment(createAlignment),
	}

	if createDiskGUID != "" {
		diskGUID, err := uuid.Parse(createDiskGUID)
		if err != nil {
			return fmt.Errorf("invalid disk GUID %q: %w", createDiskGUID, err)
		}

		opts = append(opts, gpt.WithDiskGUID(diskGUID))
	}

	img, err := gpt.Build(geometry, requests, opts...)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(createOutput, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	defer f.Close() //nolint:errcheck

	// sparse output: only the metadata regions and payloads are written
	if err = f.Truncate(int64(geometry.Bytes())); err != nil {
		return err
	}

	if err = img.EncodeTo(f); err != nil {
		return err
	}

	for i, spec := range specs {
		if spec.content == "" {
			continue
		}

		if err = embedPayload(f, img, i, spec.content); err != nil {
			return err
		}
	}

	if err = f.Sync(); err != nil {
		return err
	}

	logger.Info("created disk image",
		zap.String("path", createOutput),
		zap.Uint64("sectors", geometry.TotalSectors),
		zap.Int("partitions", len(requests)),
	)

	fmt.Printf("%s: %s, %d partition(s), disk GUID %s\n",
		createOutput, humanize.IBytes(geometry.Bytes()), len(requests), img.DiskGUID())

	return nil
}

// embedPayload copies a payload file into the partition's byte range.
func embedPayload(f *os.File, img *gpt.Image, partition int, path string) error {
	offset, length, err := img.PartitionByteRange(partition)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if uint64(len(payload)) > length {
		return fmt.Errorf("payload %s is %d bytes, partition %d holds only %d",
			path, len(payload), partition, length)
	}

	if _, err = f.WriteAt(payload, int64(offset)); err != nil {
		return fmt.Errorf("failed to embed payload %s: %w", path, err)
	}

	logger.Debug("embedded payload",
		zap.String("path", path),
		zap.Int("partition", partition),
		zap.Uint64("offset", offset),
		zap.Int("bytes", len(payload)),
	)

	return nil
}
