// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/vechain/resolvernet/config"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/node"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/resolvers/reverts"
	"github.com/vechain/resolvernet/rnet"
)

var logger = log.WithContext("pkg", "harness")

const eventBuffer = 1024

// StepResult records what one step did.
type StepResult struct {
	Index    int
	Op       string
	Time     uint64
	Error    string
	Amount   *big.Int
	Selected []rnet.Address
	Seed     []byte
	Events   []*resolvers.Event
}

// Report is the outcome of a replay.
type Report struct {
	Name      string
	Steps     []*StepResult
	Resolvers []*resolvers.ResolverState
	Totals    *resolvers.Totals
	// Events as read back from the event db.
	Events []*resolvers.Event
}

// NodeConfig builds the node config of the script. The node always runs in
// memory.
func (s *Script) NodeConfig() (*config.Config, error) {
	cfg := config.Default()
	if s.Config.Kind != 0 {
		data, err := yaml.Marshal(&s.Config)
		if err != nil {
			return nil, errors.Wrap(err, "encode config")
		}
		if cfg, err = config.Parse(data); err != nil {
			return nil, err
		}
	}
	cfg.DataDir = ""
	cfg.VRFKeyFile = ""

	for _, name := range sortedKeys(s.Endowments) {
		addr, err := Address(name)
		if err != nil {
			return nil, errors.WithMessagef(err, "endowments.%s", name)
		}
		amount := s.Endowments[name]
		if amount == nil {
			continue
		}
		cfg.Genesis.Endowments = append(cfg.Genesis.Endowments, config.Endowment{
			Account: addr,
			Asset:   cfg.Network.StakeAsset,
			Amount:  *amount,
		})
	}
	for _, name := range sortedKeys(s.Credibility) {
		addr, err := Address(name)
		if err != nil {
			return nil, errors.WithMessagef(err, "credibility.%s", name)
		}
		cfg.Genesis.Credibility = append(cfg.Genesis.Credibility, config.Score{Identity: addr, Score: s.Credibility[name]})
	}
	for _, name := range s.Governance {
		addr, err := Address(name)
		if err != nil {
			return nil, errors.WithMessage(err, "governance")
		}
		cfg.Network.Governance = append(cfg.Network.Governance, addr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run replays s on a fresh node and stops at the first failed step. The
// report covers the steps run so far. Recorded events are checked against
// the published ones at the end.
func Run(ctx context.Context, s *Script) (*Report, error) {
	return RunObserved(ctx, s, nil)
}

// RunObserved is Run calling observe, when not nil, after every step.
func RunObserved(ctx context.Context, s *Script, observe func(*StepResult)) (*Report, error) {
	cfg, err := s.NodeConfig()
	if err != nil {
		return nil, err
	}
	clock := resolvers.NewManualClock(s.Start)
	n, err := node.New(cfg, node.Options{Clock: clock})
	if err != nil {
		return nil, err
	}
	defer n.Close()

	r := &runner{
		node:   n,
		clock:  clock,
		asset:  config.Asset(cfg.Network.StakeAsset),
		events: make(chan *resolvers.Event, eventBuffer),
	}
	sub := n.Network.Subscribe(r.events)
	defer sub.Unsubscribe()

	report := &Report{Name: s.Name}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := r.step(st)
		res.Index = i
		report.Steps = append(report.Steps, res)
		if observe != nil {
			observe(res)
		}
		if err != nil {
			return report, errors.WithMessagef(err, "steps[%d] %s", i, st.Op)
		}
	}

	if r.lastSeq > 0 {
		if err := n.WaitRecorded(ctx, r.lastSeq); err != nil {
			return report, errors.Wrap(err, "wait for events")
		}
	}
	if report.Events, err = n.EventDB.Filter(nil); err != nil {
		return report, err
	}
	if err := verifyRecorded(r.published, report.Events); err != nil {
		return report, err
	}
	if report.Resolvers, err = n.Network.Resolvers(false); err != nil {
		return report, err
	}
	if report.Totals, err = n.Network.Totals(); err != nil {
		return report, err
	}
	logger.Info("replay done", "name", s.Name, "steps", len(report.Steps), "events", len(report.Events))
	return report, nil
}

type runner struct {
	node    *node.Node
	clock   *resolvers.ManualClock
	asset   rnet.Bytes32
	events  chan *resolvers.Event
	lastSeq uint64
	// published collects every event in delivery order.
	published []*resolvers.Event
}

func (r *runner) step(st *Step) (*StepResult, error) {
	res := &StepResult{Op: st.Op, Time: r.clock.Now()}

	switch st.Op {
	case OpAdvance:
		r.clock.Advance(uint64(st.Duration.Milliseconds()))
		return res, nil
	case OpExpect:
		return res, r.expect(st.Expect)
	}

	a, err := parseArgs(st)
	if err != nil {
		return res, err
	}
	opErr := r.apply(st, a, res)
	res.Events = r.drain()
	if opErr != nil {
		res.Error = opErr.Error()
	}

	switch {
	case st.ExpectError != "":
		if opErr == nil {
			return res, errors.Errorf("expected %s, succeeded", st.ExpectError)
		}
		if code := reverts.CodeOf(opErr); code.String() != st.ExpectError {
			return res, errors.Errorf("expected %s, got: %v", st.ExpectError, opErr)
		}
		if len(res.Events) > 0 {
			return res, errors.Errorf("failed op emitted %d events", len(res.Events))
		}
	case opErr != nil:
		return res, opErr
	}

	if st.ExpectEvents != nil {
		kinds := make([]string, 0, len(res.Events))
		for _, ev := range res.Events {
			kinds = append(kinds, ev.Kind.String())
		}
		if !slices.Equal(kinds, st.ExpectEvents) {
			return res, errors.Errorf("unexpected events\n%s", diff(st.ExpectEvents, kinds))
		}
	}
	if st.Op == OpSelect {
		if err := r.checkSelection(st.Count, res.Selected); err != nil {
			return res, err
		}
	}
	if st.ExpectAmount != nil {
		if err := compare("amount", res.Amount, st.ExpectAmount); err != nil {
			return res, err
		}
	}
	return res, nil
}

type args struct {
	who      rnet.Address
	resolver rnet.Address
	amount   *big.Int
}

func parseArgs(st *Step) (*args, error) {
	var (
		a   args
		err error
	)
	if st.Who != "" {
		if a.who, err = Address(st.Who); err != nil {
			return nil, errors.WithMessage(err, "who")
		}
	}
	if st.Resolver != "" {
		if a.resolver, err = Address(st.Resolver); err != nil {
			return nil, errors.WithMessage(err, "resolver")
		}
	}
	if st.Amount != nil {
		a.amount = (*big.Int)(st.Amount)
	}
	return &a, nil
}

// apply runs the op and returns its failure.
func (r *runner) apply(st *Step, a *args, res *StepResult) (err error) {
	nw := r.node.Network

	switch st.Op {
	case OpSelfStake:
		return nw.SelfStake(a.who, a.amount)
	case OpIncreaseSelfStake:
		return nw.IncreaseSelfStake(a.who, a.amount)
	case OpDecreaseSelfStake:
		return nw.DecreaseSelfStake(a.who, a.amount)
	case OpDelegate:
		return nw.Delegate(a.who, a.resolver, a.amount)
	case OpRequestUndelegate:
		return nw.RequestUndelegate(a.who, a.resolver, a.amount)
	case OpClaimUndelegate:
		res.Amount, err = nw.ClaimUndelegate(a.who, a.resolver)
		return err
	case OpPenalize:
		return nw.Penalize(a.who, a.resolver, a.amount)
	case OpClaimPenaltyRelease:
		if st.UnlockAt != nil {
			res.Amount, err = nw.ClaimPenaltyReleaseAt(a.who, *st.UnlockAt)
		} else {
			res.Amount, err = nw.ClaimPenaltyRelease(a.who)
		}
		return err
	case OpSetCredibility:
		return r.node.Credibility.Set(a.who, st.Score)
	case OpRewardCredibility:
		return r.node.Credibility.Reward(a.who, st.Score)
	case OpSlashCredibility:
		return r.node.Credibility.Slash(a.who, st.Score)
	case OpReevaluate:
		return nw.Reevaluate(a.who)
	case OpSelect:
		res.Selected, res.Seed, err = nw.Select(st.Count)
		return err
	}
	return errors.Errorf("unknown op %q", st.Op)
}

// drain collects the events published by the last op. Publishing completes
// before an op returns, so nothing is left in flight.
func (r *runner) drain() []*resolvers.Event {
	var out []*resolvers.Event
	for {
		select {
		case ev := <-r.events:
			out = append(out, ev)
			r.published = append(r.published, ev)
			r.lastSeq = ev.Seq
		default:
			return out
		}
	}
}

func (r *runner) checkSelection(count int, selected []rnet.Address) error {
	active, err := r.node.Network.Resolvers(true)
	if err != nil {
		return err
	}
	want := min(max(count, 0), len(active))
	if len(selected) != want {
		return errors.Errorf("selected %d resolvers, expected %d", len(selected), want)
	}
	seen := make(map[rnet.Address]bool, len(selected))
	for _, a := range selected {
		if seen[a] {
			return errors.Errorf("%s selected twice", a)
		}
		seen[a] = true
		if !slices.ContainsFunc(active, func(s *resolvers.ResolverState) bool { return s.Address == a }) {
			return errors.Errorf("inactive resolver %s selected", a)
		}
	}
	return nil
}

func (r *runner) expect(e *Expect) error {
	nw := r.node.Network

	if e.Resolver != "" {
		id, err := Address(e.Resolver)
		if err != nil {
			return errors.WithMessage(err, "resolver")
		}
		s, err := nw.QueryResolverState(id)
		if err != nil {
			return err
		}
		if e.Active != nil && s.Active != *e.Active {
			return errors.Errorf("%s: active %v, expected %v (%s)", e.Resolver, s.Active, *e.Active, s.Ineligible)
		}
		for _, c := range []struct {
			name string
			got  *big.Int
			want *math.HexOrDecimal256
		}{
			{"selfStake", s.SelfStake, e.SelfStake},
			{"penalized", s.Penalized, e.Penalized},
			{"delegated", s.Delegated, e.Delegated},
			{"pendingExit", s.PendingExit, e.PendingExit},
		} {
			if c.want == nil {
				continue
			}
			if err := compare(e.Resolver+"."+c.name, c.got, c.want); err != nil {
				return err
			}
		}
	}

	for _, name := range sortedKeys(e.Balances) {
		account, err := Address(name)
		if err != nil {
			return errors.WithMessage(err, "balances")
		}
		balance, err := nw.Balance(r.asset, account)
		if err != nil {
			return err
		}
		if err := compare("balance of "+name, balance, e.Balances[name]); err != nil {
			return err
		}
	}

	if e.ActiveCount != nil {
		t, err := nw.Totals()
		if err != nil {
			return err
		}
		if t.Active != *e.ActiveCount {
			return errors.Errorf("active count %d, expected %d", t.Active, *e.ActiveCount)
		}
	}
	return nil
}

// verifyRecorded checks the event db holds exactly what was published.
func verifyRecorded(published, recorded []*resolvers.Event) error {
	e, err := json.MarshalIndent(published, "", "  ")
	if err != nil {
		return err
	}
	a, err := json.MarshalIndent(recorded, "", "  ")
	if err != nil {
		return err
	}
	if !bytes.Equal(e, a) {
		return errors.Errorf("recorded events differ from published\n%s",
			diff(strings.Split(string(e), "\n"), strings.Split(string(a), "\n")))
	}
	return nil
}

// diff renders a unified diff of two line sets.
func diff(expected, actual []string) string {
	d, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(expected),
		B:        withNewlines(actual),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return d
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

func compare(what string, got *big.Int, want *math.HexOrDecimal256) error {
	if got == nil {
		got = new(big.Int)
	}
	w := new(big.Int)
	if want != nil {
		w = (*big.Int)(want)
	}
	if got.Cmp(w) != 0 {
		return errors.Errorf("%s is %s, expected %s", what, got, w)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
