// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package credibility keeps bounded credibility scores of identities.
// How scores are earned is up to the caller; the registry stores them,
// enforces the bounds and tells observers about changes.
package credibility

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/rnet"
	"github.com/vechain/resolvernet/slot"
	"github.com/vechain/resolvernet/state"
)

const (
	DefaultInitial uint8 = 60
	DefaultMax     uint8 = 100
)

var (
	logger = log.WithContext("pkg", "credibility")

	storageAddress = rnet.BytesToAddress([]byte("credibility"))
	slotScores     = rnet.BytesToBytes32([]byte("scores"))
)

type record struct {
	Score uint8
}

// Hook observes a committed score change.
type Hook func(id rnet.Address, score uint8)

// Registry is safe for concurrent use. It must own its state exclusively.
type Registry struct {
	mu      sync.RWMutex
	state   *state.State
	scores  *slot.Mapping[rnet.Address, *record]
	initial uint8
	max     uint8

	hooksMu sync.RWMutex
	hooks   []Hook
}

func New(st *state.State, initial, maxScore uint8) (*Registry, error) {
	if initial > maxScore {
		return nil, errors.Errorf("initial credibility %d above max %d", initial, maxScore)
	}
	return &Registry{
		state:   st,
		scores:  slot.NewMapping[rnet.Address, *record](slot.NewContext(storageAddress, st), slotScores),
		initial: initial,
		max:     maxScore,
	}, nil
}

func (r *Registry) Initial() uint8 { return r.initial }
func (r *Registry) Max() uint8     { return r.max }

// OnChange registers a hook called after every committed change, outside
// the registry lock.
func (r *Registry) OnChange(h Hook) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, h)
}

// CredibilityOf returns the score, or the initial score for unknown identities.
func (r *Registry) CredibilityOf(id rnet.Address) (uint8, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *Registry) get(id rnet.Address) (uint8, error) {
	rec, err := r.scores.Get(id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get credibility")
	}
	if rec == nil {
		return r.initial, nil
	}
	return rec.Score, nil
}

// Set replaces the score. Scores above max are rejected.
func (r *Registry) Set(id rnet.Address, score uint8) error {
	if score > r.max {
		return errors.Errorf("credibility %d above max %d", score, r.max)
	}
	return r.update(id, func(uint8) uint8 { return score })
}

// Reward raises the score by delta, saturating at max.
func (r *Registry) Reward(id rnet.Address, delta uint8) error {
	return r.update(id, func(cur uint8) uint8 {
		if delta > r.max-cur {
			return r.max
		}
		return cur + delta
	})
}

// Slash lowers the score by delta, saturating at zero.
func (r *Registry) Slash(id rnet.Address, delta uint8) error {
	return r.update(id, func(cur uint8) uint8 {
		if delta > cur {
			return 0
		}
		return cur - delta
	})
}

func (r *Registry) update(id rnet.Address, fn func(uint8) uint8) error {
	r.mu.Lock()
	cur, err := r.get(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	next := fn(cur)

	checkpoint := r.state.NewCheckpoint()
	if err := r.scores.Set(id, &record{Score: next}); err != nil {
		r.state.RevertTo(checkpoint)
		r.mu.Unlock()
		return errors.Wrap(err, "failed to set credibility")
	}
	if err := r.state.Commit(); err != nil {
		r.state.RevertTo(checkpoint)
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	logger.Debug("credibility updated", "id", id, "from", cur, "to", next)
	if next != cur {
		r.notify(id, next)
	}
	return nil
}

func (r *Registry) notify(id rnet.Address, score uint8) {
	r.hooksMu.RLock()
	hooks := append([]Hook(nil), r.hooks...)
	r.hooksMu.RUnlock()

	for _, h := range hooks {
		h(id, score)
	}
}
