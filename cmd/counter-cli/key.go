// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ava-labs/countervm/utils"
)

var force bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage keys",
}

var genKeyCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key and make it the default",
	RunE: func(*cobra.Command, []string) error {
		_, err := handler.GenerateKey(force)
		return err
	},
}

var importKeyCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import a hex encoded key and make it the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		_, err := handler.ImportKey(args[0], force)
		return err
	},
}

var exportKeyCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the default key to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		_, err := handler.ExportKey(args[0])
		return err
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set",
	Short: "Pick the default key",
	RunE: func(*cobra.Command, []string) error {
		return handler.SetKey()
	},
}

var addressKeyCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the default key address",
	RunE: func(*cobra.Command, []string) error {
		addr, err := handler.Address()
		if err != nil {
			return err
		}
		utils.Outf("{{yellow}}address:{{/}} %s\n", addr)
		return nil
	},
}

func init() {
	keyCmd.AddCommand(
		genKeyCmd,
		importKeyCmd,
		exportKeyCmd,
		setKeyCmd,
		addressKeyCmd,
	)
	genKeyCmd.Flags().BoolVar(&force, "force", false, "replace the default key without asking")
	importKeyCmd.Flags().BoolVar(&force, "force", false, "replace the default key without asking")
}
