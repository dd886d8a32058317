// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/resolvernet/api/accounts"
	"github.com/vechain/resolvernet/api/events"
	"github.com/vechain/resolvernet/api/middleware"
	"github.com/vechain/resolvernet/api/resolvers"
	"github.com/vechain/resolvernet/api/subscriptions"
	"github.com/vechain/resolvernet/eventdb"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/metrics"
	network "github.com/vechain/resolvernet/resolvers"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins     string
	EventsLimit        uint64
	EnableMetrics      bool
	EnableReqLogger    *atomic.Bool
	SlowQueryThreshold time.Duration
	// RateLimit is the per client request rate, zero disables limiting.
	RateLimit float64
	RateBurst int
}

// New returns the api handler and a func closing hijacked subscription
// connections.
func New(nw *network.Network, eventDB *eventdb.EventDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	resolvers.New(nw).
		Mount(router, "/resolvers")
	accounts.New(nw).
		Mount(router, "/accounts")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(nw, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(middleware.Metrics)
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").
				Methods(http.MethodGet).
				Name("GET /metrics").
				Handler(h)
		}
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.ExposedHeaders([]string{subscriptions.SubscriptionHeader}),
	)(handler)

	if opts.RateLimit > 0 {
		handler = middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst).Handle(handler)
	}

	reqLogger := opts.EnableReqLogger
	if reqLogger == nil {
		reqLogger = &atomic.Bool{}
	}
	handler = middleware.RequestLogger(logger, reqLogger, opts.SlowQueryThreshold)(handler)

	return handler.ServeHTTP, subs.Close
}
