// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// yoyo builds, verifies and inspects GPT-partitioned raw disk images.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	sectorSize uint

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "yoyo",
	Short:        "Build, verify and inspect GPT disk images",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if !verbose {
			return nil
		}

		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}

		logger = l

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().UintVar(&sectorSize, "sector-size", 512, "logical sector size in bytes")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
