// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/api/events"
	"github.com/vechain/resolvernet/api/utils"
	"github.com/vechain/resolvernet/co"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

const (
	// SubscriptionHeader carries the id assigned to a subscription.
	SubscriptionHeader = "X-Subscription-Id"

	eventBufferSize = 1024
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 7 / 10
)

var logger = log.WithContext("pkg", "subscriptions")

type Subscriptions struct {
	network  *resolvers.Network
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
	goes     co.Goes
	closed   sync.Once
}

// New creates the subscription endpoint. An origin list containing "*" allows
// any origin.
func New(network *resolvers.Network, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		network: network,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// filter selects the events a subscriber is interested in.
type filter struct {
	resolver  *rnet.Address
	delegator *rnet.Address
	kinds     map[resolvers.EventKind]bool
}

func parseFilter(req *http.Request) (*filter, error) {
	query := req.URL.Query()
	f := &filter{}
	if s := query.Get("resolver"); s != "" {
		addr, err := rnet.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "resolver"))
		}
		f.resolver = &addr
	}
	if s := query.Get("delegator"); s != "" {
		addr, err := rnet.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "delegator"))
		}
		f.delegator = &addr
	}
	if s := query.Get("kinds"); s != "" {
		f.kinds = make(map[resolvers.EventKind]bool)
		for _, name := range strings.Split(s, ",") {
			kind, err := resolvers.ParseEventKind(strings.TrimSpace(name))
			if err != nil {
				return nil, utils.BadRequest(errors.WithMessage(err, "kinds"))
			}
			f.kinds[kind] = true
		}
	}
	return f, nil
}

func (f *filter) match(ev *resolvers.Event) bool {
	if f.resolver != nil && *f.resolver != ev.Resolver {
		return false
	}
	if f.delegator != nil && (ev.Delegator == nil || *f.delegator != *ev.Delegator) {
		return false
	}
	if f.kinds != nil && !f.kinds[ev.Kind] {
		return false
	}
	return true
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	f, err := parseFilter(req)
	if err != nil {
		return err
	}

	// subscribe before the handshake completes, so the client sees every
	// event published after it connected. A client falling more than
	// eventBufferSize events behind is disconnected.
	ch := make(chan *resolvers.Event, eventBufferSize)
	sub := s.network.SubscribeNonBlocking(ch)
	defer sub.Unsubscribe()

	id := uuid.New()
	conn, err := s.upgrader.Upgrade(w, req, http.Header{SubscriptionHeader: {id}})
	if err != nil {
		// the upgrader has already replied
		logger.Debug("upgrade failed", "error", err)
		return nil
	}

	s.wg.Add(1)
	defer s.wg.Done()

	logger.Debug("subscription opened", "id", id, "remote", conn.RemoteAddr())
	if err := s.pipe(conn, f, ch, sub); err != nil {
		logger.Debug("subscription closed", "id", id, "error", err)
	} else {
		logger.Debug("subscription closed", "id", id)
	}
	return nil
}

// pipe forwards matching events to conn until either side closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, f *filter, ch <-chan *resolvers.Event, sub event.Subscription) error {
	defer conn.Close()

	// the reader only exists to process control frames and notice the peer leaving
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	s.goes.Go(func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	})

	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait))
			return nil
		case <-closed:
			return nil
		case err := <-sub.Err():
			if errors.Is(err, resolvers.ErrSubscriberTooSlow) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
					time.Now().Add(writeWait))
			}
			return err
		case ev := <-ch:
			if !f.match(ev) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(events.NewEvent(ev)); err != nil {
				return err
			}
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// Close disconnects every subscriber and waits for their goroutines to exit.
func (s *Subscriptions) Close() {
	s.closed.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	s.goes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
