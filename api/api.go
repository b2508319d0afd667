// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import "net/http"

const (
	// Name is the JSON-RPC service name.
	Name = "counterapi"
	// Base is the URL path every API is mounted under.
	Base = "ext"
)

type Handler struct {
	Path    string
	Handler http.Handler
}
