// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node assembles the stores, adapters and the network into a
// running process.
package node

import (
	"context"
	"crypto/ecdsa"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/api/admin/health"
	"github.com/vechain/resolvernet/co"
	"github.com/vechain/resolvernet/config"
	"github.com/vechain/resolvernet/credibility"
	"github.com/vechain/resolvernet/currency"
	"github.com/vechain/resolvernet/eventdb"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/lvldb"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/state"
	"github.com/vechain/resolvernet/vrf"
)

var logger = log.WithContext("pkg", "node")

const (
	stateDirName    = "state"
	eventDBFileName = "events.db"
	vrfKeyFileName  = "vrf.key"

	recordBufferSize = 4096
	recordBatchSize  = 256

	reevaluateAttempts = 3
)

var (
	genesisAddress = rnet.BytesToAddress([]byte("genesis"))
	slotGenesis    = rnet.BytesToBytes32([]byte("applied"))
	vrfGenesisSeed = rnet.Blake2b([]byte("resolvernet"))
)

type Options struct {
	// Clock defaults to the system clock.
	Clock resolvers.Clock
	// LogLevel is exposed over the admin API when set.
	LogLevel *slog.LevelVar
}

// Node owns every long lived component. Close releases them.
type Node struct {
	cfg       *config.Config
	store     *lvldb.LevelDB
	logLevel  *slog.LevelVar
	reqLogger atomic.Bool

	Ledger      *currency.Ledger
	Credibility *credibility.Registry
	Randomness  *vrf.Source
	Network     *resolvers.Network
	EventDB     *eventdb.EventDB
	Health      *health.Health

	events   chan *resolvers.Event
	sub      event.Subscription
	recorded co.Watermark
	quit     chan struct{}
	goes     co.Goes
	closed   sync.Once
}

// New opens the stores under cfg.DataDir, or in memory when it is empty,
// applies genesis on first start and starts recording events.
func New(cfg *config.Config, opts Options) (_ *Node, err error) {
	n := &Node{
		cfg:      cfg,
		logLevel: opts.LogLevel,
		Health:   &health.Health{},
		quit:     make(chan struct{}),
	}
	if n.logLevel == nil {
		n.logLevel = new(slog.LevelVar)
	}
	n.reqLogger.Store(cfg.API.EnableReqLogger)
	defer func() {
		if err != nil {
			n.closeStores()
		}
	}()

	if err := n.openStores(); err != nil {
		return nil, err
	}

	st, err := state.New(n.store, state.Options{})
	if err != nil {
		return nil, err
	}
	credState, err := state.New(n.store, state.Options{})
	if err != nil {
		return nil, err
	}
	n.Ledger = currency.New(st)
	if n.Credibility, err = credibility.New(credState, cfg.Credibility.Initial, cfg.Credibility.Max); err != nil {
		return nil, err
	}
	if err := n.applyGenesis(st); err != nil {
		return nil, errors.WithMessage(err, "genesis")
	}

	key, err := n.vrfKey()
	if err != nil {
		return nil, errors.WithMessage(err, "vrf key")
	}
	n.Randomness = vrf.NewSource(key, vrfGenesisSeed.Bytes())

	clock := opts.Clock
	if clock == nil {
		clock = resolvers.SystemClock()
	}
	if n.Network, err = resolvers.New(st, cfg.Params(), n.Ledger, n.Credibility, n.Randomness, clock); err != nil {
		return nil, err
	}
	n.Credibility.OnChange(n.onCredibilityChange)

	last, err := n.EventDB.LastSeq()
	if err != nil {
		return nil, err
	}
	n.Health.Recorded(last)
	n.recorded.Advance(last)

	n.events = make(chan *resolvers.Event, recordBufferSize)
	n.sub = n.Network.Subscribe(n.events)
	n.goes.Go(n.record)

	logger.Info("node ready", "dataDir", cfg.DataDir, "lastEvent", last, "vrfKey", hexutil.Encode(n.Randomness.PublicKey()))
	return n, nil
}

func (n *Node) openStores() (err error) {
	if n.cfg.DataDir == "" {
		if n.store, err = lvldb.NewMem(); err != nil {
			return err
		}
		n.EventDB, err = eventdb.NewMem()
		return err
	}

	if err := os.MkdirAll(n.cfg.DataDir, 0o700); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	if n.store, err = lvldb.New(filepath.Join(n.cfg.DataDir, stateDirName), lvldb.Options{
		CacheSize:              normalizeCacheSize(n.cfg.Cache),
		OpenFilesCacheCapacity: suggestOpenFiles(),
	}); err != nil {
		return err
	}
	n.EventDB, err = eventdb.New(filepath.Join(n.cfg.DataDir, eventDBFileName))
	return err
}

// applyGenesis runs once per store. Scores are written first, since setting
// them again after an interrupted start is harmless, while endowments are
// committed together with the marker.
func (n *Node) applyGenesis(st *state.State) error {
	applied, err := st.GetStorage(genesisAddress, slotGenesis)
	if err != nil {
		return err
	}
	if !applied.IsZero() {
		return nil
	}

	for _, s := range n.cfg.Genesis.Credibility {
		if err := n.Credibility.Set(s.Identity, s.Score); err != nil {
			return err
		}
	}
	for _, e := range n.cfg.Genesis.Endowments {
		amount := (*big.Int)(&e.Amount)
		if err := n.Ledger.Mint(config.Asset(e.Asset), e.Account, amount); err != nil {
			return err
		}
	}
	st.SetStorage(genesisAddress, slotGenesis, rnet.BytesToBytes32([]byte{1}))
	if err := st.Commit(); err != nil {
		return err
	}
	logger.Info("genesis applied",
		"endowments", len(n.cfg.Genesis.Endowments),
		"scores", len(n.cfg.Genesis.Credibility))
	return nil
}

// VRFKeyFile returns where the VRF key of cfg is kept, empty when the key
// lives in memory only.
func VRFKeyFile(cfg *config.Config) string {
	if cfg.VRFKeyFile != "" {
		return cfg.VRFKeyFile
	}
	if cfg.DataDir == "" {
		return ""
	}
	return filepath.Join(cfg.DataDir, vrfKeyFileName)
}

func (n *Node) vrfKey() (*ecdsa.PrivateKey, error) {
	keyFile := VRFKeyFile(n.cfg)
	if keyFile == "" {
		return crypto.GenerateKey()
	}
	return vrf.LoadOrGenerateKey(keyFile)
}

func (n *Node) onCredibilityChange(id rnet.Address, score uint8) {
	if err := reconcile(n.Network.Reevaluate, id); err != nil {
		logger.Warn("failed to reevaluate after credibility change", "resolver", id, "score", score, "error", err)
	}
}

// reconcile runs reevaluate until it succeeds or reverts, up to
// reevaluateAttempts times. An unknown resolver reverts, as it has nothing
// to update yet.
func reconcile(reevaluate func(rnet.Address) error, id rnet.Address) error {
	var err error
	for range reevaluateAttempts {
		if err = reevaluate(id); err == nil || reverts.IsRevertErr(err) {
			return nil
		}
	}
	return err
}

// record persists published events in batches until the node closes.
func (n *Node) record() {
	n.Health.Recording(true)
	defer n.Health.Recording(false)

	for {
		select {
		case <-n.quit:
			n.flush()
			return
		case err := <-n.sub.Err():
			if err != nil {
				metricRecordFailures().AddWithLabel(1, map[string]string{"reason": "subscription"})
				logger.Error("event subscription failed", "error", err)
			}
			return
		case ev := <-n.events:
			n.persist(n.batch(ev))
		}
	}
}

func (n *Node) batch(first *resolvers.Event) []*resolvers.Event {
	batch := []*resolvers.Event{first}
	n.Health.Published(first.Seq)
	for len(batch) < recordBatchSize {
		select {
		case ev := <-n.events:
			n.Health.Published(ev.Seq)
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (n *Node) flush() {
	for {
		select {
		case ev := <-n.events:
			n.persist(n.batch(ev))
		default:
			return
		}
	}
}

func (n *Node) persist(batch []*resolvers.Event) {
	metricRecordBatchSize().Observe(int64(len(batch)))
	if err := n.EventDB.Insert(batch); err != nil {
		metricRecordFailures().AddWithLabel(1, map[string]string{"reason": "insert"})
		logger.Error("failed to record events", "from", batch[0].Seq, "count", len(batch), "error", err)
		return
	}
	last := batch[len(batch)-1].Seq
	metricRecordedSeq().Set(int64(last))
	n.Health.Recorded(last)
	n.recorded.Advance(last)
}

// WaitRecorded blocks until the event with sequence seq is persisted.
func (n *Node) WaitRecorded(ctx context.Context, seq uint64) error {
	return n.recorded.WaitFor(ctx, seq)
}

// Close stops recording, flushing what was already published, and closes
// the stores.
func (n *Node) Close() error {
	var err error
	n.closed.Do(func() {
		close(n.quit)
		n.goes.Wait()
		n.sub.Unsubscribe()
		n.Network.Close()
		err = n.closeStores()
	})
	return err
}

func (n *Node) closeStores() error {
	var errs []error
	if n.EventDB != nil {
		errs = append(errs, n.EventDB.Close())
	}
	if n.store != nil {
		errs = append(errs, n.store.Close())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
