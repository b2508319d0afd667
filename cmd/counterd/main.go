// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "counterd" serves the counter programs over JSON-RPC and websockets.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	avatrace "github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/countervm/actions"
	"github.com/ava-labs/countervm/api"
	"github.com/ava-labs/countervm/api/jsonrpc"
	"github.com/ava-labs/countervm/api/ws"
	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/config"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/event"
	"github.com/ava-labs/countervm/indexer"
	"github.com/ava-labs/countervm/pebble"
	"github.com/ava-labs/countervm/server"
	"github.com/ava-labs/countervm/trace"
	"github.com/ava-labs/countervm/utils"
)

const metricsEndpoint = "/metrics"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "counterd",
		Short:         "Counter node",
		Version:       consts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, c)
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "JSON or YAML config file")
}

func run(ctx context.Context, c config.Config) error {
	logConfig, err := c.LoggingConfig()
	if err != nil {
		return err
	}
	logFactory := logging.NewFactory(logConfig)
	defer logFactory.Close()
	log, err := logFactory.Make(consts.Name)
	if err != nil {
		return err
	}

	rules, err := c.Rules()
	if err != nil {
		return err
	}
	tracer, err := trace.New(&c.Trace)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	dataDir, err := utils.InitSubDirectory(c.DataDirectory, "state")
	if err != nil {
		return err
	}
	db, dbRegistry, err := pebble.New(dataDir, c.Pebble)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	subscriptions, idx, stream, err := newSubscriptions(log, c)
	if err != nil {
		return errors.Join(err, db.Close())
	}

	actionRegistry, err := actions.NewRegistry()
	if err != nil {
		return err
	}
	authRegistry, err := auth.NewRegistry()
	if err != nil {
		return err
	}
	processor, err := chain.NewProcessor(
		log,
		tracer,
		rules,
		db,
		actionRegistry,
		authRegistry,
		subscriptions...,
	)
	if err != nil {
		return errors.Join(err, event.CloseAll(subscriptions...), db.Close())
	}

	srv, err := newServer(log, tracer, c, processor, idx, stream, prometheus.Gatherers{processor.Registry(), dbRegistry})
	if err != nil {
		return errors.Join(err, processor.Close(), db.Close())
	}
	log.Info("starting counter node",
		zap.Stringer("chainID", rules.ChainID),
		zap.Stringer("programID", rules.ProgramID),
		zap.Stringer("address", srv.Addr()),
		zap.Bool("indexer", idx != nil),
		zap.Bool("websocket", stream != nil),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Dispatch(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("triggering server shutdown")
		return srv.Shutdown()
	})
	err = g.Wait()

	errs := wrappers.Errs{}
	errs.Add(
		err,
		processor.Close(),
		db.Close(),
		tracer.Close(),
	)
	log.Info("counter node exited", zap.Error(errs.Err))
	return errs.Err
}

// newSubscriptions builds the enabled event consumers. [idx] and [stream]
// are nil when their consumer is disabled.
func newSubscriptions(
	log logging.Logger,
	c config.Config,
) ([]event.Subscription[*chain.Event], jsonrpc.Indexer, *ws.WebSocketServer, error) {
	var (
		factories []event.SubscriptionFactory[*chain.Event]
		idx       jsonrpc.Indexer
		stream    *ws.WebSocketServer
	)
	if len(c.IndexerPath) > 0 {
		factories = append(factories, event.FactoryFunc[*chain.Event](func() (event.Subscription[*chain.Event], error) {
			i, err := indexer.Open(log, c.IndexerPath)
			if err != nil {
				return nil, err
			}
			idx = i
			return i, nil
		}))
	}
	if c.WebSocket.Enabled {
		factories = append(factories, event.FactoryFunc[*chain.Event](func() (event.Subscription[*chain.Event], error) {
			stream = ws.NewWebSocketServer(log, c.WebSocket)
			return stream, nil
		}))
	}
	subscriptions, err := event.NewSubscriptions(factories...)
	if err != nil {
		return nil, nil, nil, err
	}
	return subscriptions, idx, stream, nil
}

func newServer(
	log logging.Logger,
	tracer avatrace.Tracer,
	c config.Config,
	processor *chain.Processor,
	idx jsonrpc.Indexer,
	stream *ws.WebSocketServer,
	gatherer prometheus.Gatherer,
) (server.Server, error) {
	listener, err := net.Listen("tcp", c.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", c.HTTPAddress, err)
	}
	srv, err := server.New("", log, listener, c.HTTP, c.AllowedOrigins, c.AllowedHosts, c.ShutdownTimeout)
	if err != nil {
		return nil, err
	}

	handler, err := jsonrpc.NewHandler(jsonrpc.NewJSONRPCServer(log, tracer, processor, idx))
	if err != nil {
		return nil, err
	}
	handlers := []api.Handler{
		handler,
		{
			Path:    metricsEndpoint,
			Handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		},
	}
	if stream != nil {
		handlers = append(handlers, api.Handler{
			Path:    ws.Endpoint,
			Handler: stream.Handler(),
		})
	}
	for _, h := range handlers {
		if err := srv.AddRoute(h.Handler, api.Base, h.Path); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.Outf("{{red}}counterd exited with error:{{/}} %+v\n", err)
		os.Exit(1)
	}
}
