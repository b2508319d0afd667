// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/spf13/cobra"
)

var (
	limit int
	start uint64
)

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "Create the counter record of the default key",
	RunE: func(*cobra.Command, []string) error {
		ctx, cancel := requestContext()
		defer cancel()
		_, err := handler.Initialize(ctx)
		return err
	},
}

var incrementCmd = &cobra.Command{
	Use:   "increment",
	Short: "Add one to the counter of the default key",
	RunE: func(*cobra.Command, []string) error {
		ctx, cancel := requestContext()
		defer cancel()
		_, err := handler.Increment(ctx)
		return err
	},
}

var decrementCmd = &cobra.Command{
	Use:   "decrement",
	Short: "Subtract one from the counter of the default key",
	RunE: func(*cobra.Command, []string) error {
		ctx, cancel := requestContext()
		defer cancel()
		_, err := handler.Decrement(ctx)
		return err
	},
}

var getCmd = &cobra.Command{
	Use:   "get [authority]",
	Short: "Print a counter record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		authority, err := authorityArg(args)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()
		_, _, err = handler.Counter(ctx, authority)
		return err
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [authority]",
	Short: "Print indexed events, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		authority, err := authorityArg(args)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()
		return handler.Events(ctx, authority, limit)
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the notification log in commit order",
	RunE: func(*cobra.Command, []string) error {
		ctx, cancel := requestContext()
		defer cancel()
		return handler.Log(ctx, start, limit)
	},
}

var txCmd = &cobra.Command{
	Use:   "tx [id]",
	Short: "Print the notification committed by a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		txID, err := ids.FromString(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()
		return handler.Transaction(ctx, txID)
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream committed events until interrupted",
	RunE: func(*cobra.Command, []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return handler.Monitor(ctx)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Initialize, increment and decrement the default counter",
	RunE: func(*cobra.Command, []string) error {
		ctx, cancel := requestContext()
		defer cancel()
		return handler.Demo(ctx)
	},
}

func init() {
	eventsCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	logCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	logCmd.Flags().Uint64Var(&start, "start", 0, "first sequence to print")
}
