// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/keyauth/config"
)

var cmdInitConfig = &cobra.Command{
	Use:   "init-config [file]",
	Short: "Write the default configuration to a file",
	Args:  cobra.ExactArgs(1),
	Run:   initConfig,
}

var flagInitConfig struct {
	Force bool
}

func init() {
	cmdMain.AddCommand(cmdInitConfig)

	cmdInitConfig.Flags().BoolVarP(&flagInitConfig.Force, "force", "f", false, "Overwrite an existing file")
}

func initConfig(_ *cobra.Command, args []string) {
	check(writeDefaultConfig(args[0], flagInitConfig.Force))
}

// writeDefaultConfig stores the default configuration. It refuses to overwrite
// an existing file unless force is set.
func writeDefaultConfig(file string, force bool) error {
	if !force {
		_, err := os.Stat(file)
		if err == nil {
			return os.ErrExist
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	return config.Store(config.Default(), file)
}
