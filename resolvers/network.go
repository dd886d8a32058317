// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package resolvers implements the stake lifecycle of the resolver network:
// self stake, delegation with two-phase exit, penalty locks and the
// eligibility state machine deciding which resolvers are active.
package resolvers

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/resolvers/delegation"
	"github.com/vechain/resolvernet/resolvers/eligibility"
	"github.com/vechain/resolvernet/resolvers/globalstats"
	"github.com/vechain/resolvernet/resolvers/penalty"
	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/resolvers/stake"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
	"github.com/vechain/resolvernet/state"
)

var (
	logger = log.WithContext("pkg", "resolvers")

	slotEventSeq = rnet.BytesToBytes32([]byte("event-seq"))

	// ErrSubscriberTooSlow ends a non-blocking subscription whose channel
	// was full when an event arrived.
	ErrSubscriberTooSlow = errors.New("subscriber too slow")
)

// Network is the single entry point to the resolver registry. Mutations are
// applied one at a time, each fully or not at all, and are followed by their
// notifications in order.
type Network struct {
	mu sync.RWMutex

	// tickets are handed out under mu in commit order and served under pubMu
	pubMu      sync.Mutex
	pubCond    *sync.Cond
	pubNext    uint64
	pubServing uint64

	params      *Params
	eligibility *eligibility.Params
	governance  map[rnet.Address]struct{}

	state       *state.State
	stake       *stake.Service
	delegations *delegation.Service
	penalties   *penalty.Service
	stats       *globalstats.Service
	eventSeq    *slot.Raw[uint64]

	currency    Currency
	journaled   bool
	credibility Credibility
	randomness  Randomness
	clock       Clock

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates a network over st. Randomness may be nil when selection is not used.
func New(
	st *state.State,
	params *Params,
	currency Currency,
	credibility Credibility,
	randomness Randomness,
	clock Clock,
) (*Network, error) {
	if params == nil {
		return nil, errors.New("params are required")
	}
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid params")
	}
	if currency == nil || credibility == nil || clock == nil {
		return nil, errors.New("currency, credibility and clock are required")
	}

	params = params.clone()
	governance := make(map[rnet.Address]struct{}, len(params.Governance))
	for _, g := range params.Governance {
		governance[g] = struct{}{}
	}

	journaled := false
	if j, ok := currency.(Journaled); ok {
		journaled = j.JournaledBy(st)
	}

	sctx := slot.NewContext(storageAddress, st)
	n := &Network{
		params:      params,
		eligibility: params.eligibility(),
		governance:  governance,
		state:       st,
		stake:       stake.New(sctx),
		delegations: delegation.New(sctx),
		penalties:   penalty.New(sctx),
		stats:       globalstats.New(sctx),
		eventSeq:    slot.NewRaw[uint64](sctx, slotEventSeq),
		currency:    currency,
		journaled:   journaled,
		credibility: credibility,
		randomness:  randomness,
		clock:       clock,
	}
	n.pubCond = sync.NewCond(&n.pubMu)

	if count, err := n.stake.ActiveCount(); err == nil {
		metricActiveResolvers().Set(int64(count))
	}
	return n, nil
}

// Params returns a copy of the network params.
func (n *Network) Params() *Params {
	return n.params.clone()
}

// Subscribe delivers every event of successful operations to ch, in order.
// An operation returns once its events are delivered, so a consumer that
// stops reading holds up the return of later operations. Reads are never
// held up.
func (n *Network) Subscribe(ch chan<- *Event) event.Subscription {
	return n.scope.Track(n.feed.Subscribe(ch))
}

// SubscribeNonBlocking is Subscribe for consumers that may fall behind.
// Delivery never waits: an event finding ch full ends the subscription
// with ErrSubscriberTooSlow.
func (n *Network) SubscribeNonBlocking(ch chan<- *Event) event.Subscription {
	relay := make(chan *Event)
	inner := n.feed.Subscribe(relay)
	return n.scope.Track(event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		for {
			select {
			case ev := <-relay:
				select {
				case ch <- ev:
				default:
					return ErrSubscriberTooSlow
				}
			case err := <-inner.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}))
}

// Close ends all subscriptions.
func (n *Network) Close() {
	n.scope.Close()
}

// txn collects the side effects of one operation.
type txn struct {
	n         *Network
	now       uint64
	events    []*Event
	transfers []transfer
}

type transfer struct {
	from, to rnet.Address
	amount   *big.Int
}

func (tx *txn) emit(ev *Event) {
	ev.Time = tx.now
	tx.events = append(tx.events, ev)
}

func (tx *txn) transfer(from, to rnet.Address, amount *big.Int) error {
	if err := tx.n.currency.Transfer(tx.n.params.StakeAsset, from, to, amount); err != nil {
		return err
	}
	tx.transfers = append(tx.transfers, transfer{from: from, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

// compensate reverses the transfers of a failed operation on a currency that
// does not roll back with the state.
func (tx *txn) compensate() {
	if tx.n.journaled {
		return
	}
	for i := len(tx.transfers) - 1; i >= 0; i-- {
		t := tx.transfers[i]
		if err := tx.n.currency.Transfer(tx.n.params.StakeAsset, t.to, t.from, t.amount); err != nil {
			logger.Error("failed to compensate transfer", "from", t.to, "to", t.from, "amount", t.amount, "error", err)
		}
	}
}

// reevaluate recomputes eligibility of id and records a change.
func (tx *txn) reevaluate(id rnet.Address) error {
	r, err := tx.n.stake.MustGet(id)
	if err != nil {
		return err
	}
	credibility, err := tx.n.credibility.CredibilityOf(id)
	if err != nil {
		return errors.Wrap(err, "failed to get credibility")
	}

	reason := eligibility.Explain(tx.n.eligibility, &eligibility.Input{
		Unlocked:    r.Unlocked(),
		Delegated:   r.Delegated,
		Credibility: credibility,
	})
	active := reason == 0

	changed, err := tx.n.stake.SetActive(id, active)
	if err != nil {
		return err
	}
	if changed {
		logger.Debug("activation changed", "resolver", id, "active", active, "reason", reason)
		tx.emit(&Event{Kind: KindActivationChanged, Resolver: id, Active: active})
	}
	return nil
}

// execute runs fn as one indivisible unit: on error nothing is kept, on
// success the state is committed and the events are published.
func (n *Network) execute(op string, fn func(tx *txn) error) error {
	start := time.Now()
	n.mu.Lock()

	tx := &txn{n: n, now: n.clock.Now()}
	checkpoint := n.state.NewCheckpoint()

	err := fn(tx)
	if err == nil {
		err = n.sequence(tx.events)
	}
	if err == nil {
		err = n.state.Commit()
	}
	if err != nil {
		n.state.RevertTo(checkpoint)
		tx.compensate()
		n.mu.Unlock()

		outcome := "error"
		if reverts.IsRevertErr(err) {
			outcome = "revert"
		}
		metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
		return err
	}

	activeCount, countErr := n.stake.ActiveCount()

	if len(tx.events) > 0 {
		ticket := n.pubNext
		n.pubNext++
		n.mu.Unlock()
		n.publish(ticket, tx.events)
	} else {
		n.mu.Unlock()
	}

	if countErr == nil {
		metricActiveResolvers().Set(int64(activeCount))
	}
	metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "outcome": "ok"})
	metricOperationDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	return nil
}

// publish sends events once the operations committed before theirs have
// published, so subscribers see commit order.
func (n *Network) publish(ticket uint64, events []*Event) {
	n.pubMu.Lock()
	defer n.pubMu.Unlock()

	for n.pubServing != ticket {
		n.pubCond.Wait()
	}
	for _, ev := range events {
		n.feed.Send(ev)
		metricEventCount().AddWithLabel(1, map[string]string{"kind": ev.Kind.String()})
	}
	n.pubServing++
	n.pubCond.Broadcast()
}

func (n *Network) sequence(events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	seq, err := n.eventSeq.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get event sequence")
	}
	for _, ev := range events {
		seq++
		ev.Seq = seq
	}
	return n.eventSeq.Set(seq)
}

func unlockTime(now, lock uint64) (uint64, error) {
	at, overflow := math.SafeAdd(now, lock)
	if overflow {
		return 0, errors.New("unlock time overflow")
	}
	return at, nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	return nil
}

func delegatorRef(a rnet.Address) *rnet.Address {
	return &a
}
