// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ava-labs/countervm/api/jsonrpc"
	"github.com/ava-labs/countervm/utils"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Print the node endpoint",
	RunE: func(*cobra.Command, []string) error {
		uri, err := handler.GetEndpoint()
		if err != nil {
			return err
		}
		utils.Outf("{{yellow}}endpoint:{{/}} %s\n", uri)
		return nil
	},
}

var setEndpointCmd = &cobra.Command{
	Use:   "set [uri]",
	Short: "Set the node endpoint, for example http://127.0.0.1:9650",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := requestContext()
		defer cancel()

		chainID, programID, tag, _, err := jsonrpc.NewJSONRPCClient(args[0]).Network(ctx)
		if err != nil {
			return err
		}
		utils.Outf(
			"{{yellow}}chainID:{{/}} %s {{yellow}}programID:{{/}} %s {{yellow}}tag:{{/}} %s\n",
			chainID, programID, tag,
		)
		return handler.StoreEndpoint(args[0])
	},
}

func init() {
	endpointCmd.AddCommand(setEndpointCmd)
}
