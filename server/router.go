// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/gorilla/mux"
)

const (
	wildcard       = "*"
	invalidHostMsg = "invalid host specified"
)

var (
	ErrRouteExists = errors.New("route already exists")

	_ http.Handler = (*router)(nil)
)

type router struct {
	lock   sync.RWMutex
	router *mux.Router

	// base URL -> endpoint -> handler
	routes map[string]map[string]http.Handler
}

func newRouter() *router {
	return &router{
		router: mux.NewRouter(),
		routes: make(map[string]map[string]http.Handler),
	}
}

func (r *router) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	r.router.ServeHTTP(writer, request)
}

func (r *router) AddRouter(base, endpoint string, handler http.Handler) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	endpoints := r.routes[base]
	if endpoints == nil {
		endpoints = make(map[string]http.Handler)
	}
	url := base + endpoint
	if _, exists := endpoints[endpoint]; exists {
		return fmt.Errorf("%w: %s", ErrRouteExists, url)
	}
	endpoints[endpoint] = handler
	r.routes[base] = endpoints

	// Name routes based on their URL for easy retrieval in the future
	route := r.router.Handle(url, handler)
	if route == nil {
		return fmt.Errorf("failed to create new route for %s", url)
	}
	route.Name(url)
	return route.GetError()
}

// filterInvalidHosts rejects requests whose Host header is neither an IP
// nor one of [allowed]. A wildcard in [allowed] disables the check.
func filterInvalidHosts(handler http.Handler, allowed []string) http.Handler {
	s := set.Set[string]{}
	for _, host := range allowed {
		if host == wildcard {
			return handler
		}
		s.Add(strings.ToLower(host))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.Host)
		if err != nil {
			// the port is optional
			host = r.Host
		}

		if net.ParseIP(host) != nil {
			handler.ServeHTTP(w, r)
			return
		}

		if !s.Contains(strings.ToLower(host)) {
			http.Error(w, invalidHostMsg, http.StatusForbidden)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
