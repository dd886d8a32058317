// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/resolvernet/api"
	"github.com/vechain/resolvernet/api/admin"
)

const shutdownTimeout = 5 * time.Second

// APIHandler returns the public API handler and the func closing its
// subscriptions.
func (n *Node) APIHandler() (http.HandlerFunc, func()) {
	return api.New(n.Network, n.EventDB, api.Options{
		AllowedOrigins:     n.cfg.API.AllowedOrigins,
		EventsLimit:        n.cfg.API.EventsLimit,
		EnableMetrics:      n.cfg.API.EnableMetrics,
		EnableReqLogger:    &n.reqLogger,
		SlowQueryThreshold: n.cfg.API.SlowQueryThreshold,
		RateLimit:          n.cfg.API.RateLimit,
		RateBurst:          n.cfg.API.RateBurst,
	})
}

// AdminHandler returns the admin API handler.
func (n *Node) AdminHandler() http.HandlerFunc {
	return admin.New(n.logLevel, n.Health)
}

// Run serves the APIs until ctx is canceled or a server fails.
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	handler, closeSubs := n.APIHandler()
	defer closeSubs()

	err := serve(ctx, g, "API", n.cfg.API.Addr, handler)
	if err == nil && n.cfg.API.AdminAddr != "" {
		err = serve(ctx, g, "admin API", n.cfg.API.AdminAddr, n.AdminHandler())
	}
	if err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	if n.cfg.NTPServer != "" {
		g.Go(func() error { return n.houseKeeping(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		// hijacked connections are not tracked by the servers
		closeSubs()
		return nil
	})
	return g.Wait()
}

func serve(ctx context.Context, g *errgroup.Group, name, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s addr [%v]", name, addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	g.Go(func() error {
		logger.Info(name+" started", "url", "http://"+listener.Addr().String())
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "serve %s", name)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
		}
		logger.Info(name + " stopped")
		return nil
	})
	return nil
}
