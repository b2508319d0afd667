// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "counter-cli" manages keys and issues counter transactions.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/countervm/cli"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/utils"
)

const (
	requestTimeout = 30 * time.Second
	databaseFolder = ".counter-cli"
)

var (
	handler *cli.Handler

	dbPath string

	rootCmd = &cobra.Command{
		Use:        "counter-cli",
		Short:      "Counter CLI",
		SuggestFor: []string{"counter-cli", "countercli"},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			h, err := cli.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", dbPath, err)
			}
			handler = h
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return handler.CloseDatabase()
		},
	}
)

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"db",
		filepath.Join(homeDir, databaseFolder),
		"path of the local key database",
	)
	rootCmd.AddCommand(
		keyCmd,
		endpointCmd,

		initializeCmd,
		incrementCmd,
		decrementCmd,
		getCmd,

		eventsCmd,
		logCmd,
		txCmd,
		monitorCmd,
		demoCmd,
	)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// authorityArg parses an optional address argument. No argument selects
// the default key.
func authorityArg(args []string) (codec.Address, error) {
	if len(args) == 0 {
		return codec.EmptyAddress, nil
	}
	return codec.ParseAddress(args[0])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.Outf("{{red}}counter-cli exited with error:{{/}} %+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
