// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package harness replays scripted operation sequences against an in-memory
// node and checks their outcome.
package harness

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/resolvernet/rnet"
)

const (
	OpSelfStake           = "selfStake"
	OpIncreaseSelfStake   = "increaseSelfStake"
	OpDecreaseSelfStake   = "decreaseSelfStake"
	OpDelegate            = "delegate"
	OpRequestUndelegate   = "requestUndelegate"
	OpClaimUndelegate     = "claimUndelegate"
	OpPenalize            = "penalize"
	OpClaimPenaltyRelease = "claimPenaltyRelease"
	OpSetCredibility      = "setCredibility"
	OpRewardCredibility   = "rewardCredibility"
	OpSlashCredibility    = "slashCredibility"
	OpReevaluate          = "reevaluate"
	OpSelect              = "select"
	OpAdvance             = "advance"
	OpExpect              = "expect"
)

var ops = map[string]bool{
	OpSelfStake: true, OpIncreaseSelfStake: true, OpDecreaseSelfStake: true,
	OpDelegate: true, OpRequestUndelegate: true, OpClaimUndelegate: true,
	OpPenalize: true, OpClaimPenaltyRelease: true,
	OpSetCredibility: true, OpRewardCredibility: true, OpSlashCredibility: true,
	OpReevaluate: true, OpSelect: true, OpAdvance: true, OpExpect: true,
}

// Script describes a replay. Accounts are referred to by name; a name
// starting with 0x is taken as an address.
type Script struct {
	Name string `yaml:"name"`
	// Config is decoded over the default node config.
	Config yaml.Node `yaml:"config"`
	// Start is the initial clock reading in milliseconds.
	Start       uint64                           `yaml:"start"`
	Endowments  map[string]*math.HexOrDecimal256 `yaml:"endowments"`
	Credibility map[string]uint8                 `yaml:"credibility"`
	// Governance is appended to the configured penalty origins.
	Governance []string `yaml:"governance"`
	Steps      []*Step  `yaml:"steps"`
}

// Step is one operation or check. Who is the caller: the resolver for stake
// and penalty release ops, the delegator for delegation ops, the governance
// origin for penalize and the identity for credibility ops.
type Step struct {
	Op       string                `yaml:"op"`
	Who      string                `yaml:"who"`
	Resolver string                `yaml:"resolver"`
	Amount   *math.HexOrDecimal256 `yaml:"amount"`
	Score    uint8                 `yaml:"score"`
	Count    int                   `yaml:"count"`
	UnlockAt *uint64               `yaml:"unlockAt"`
	Duration time.Duration         `yaml:"duration"`

	// ExpectError names the revert code the op must fail with.
	ExpectError string `yaml:"expectError"`
	// ExpectEvents lists the kinds the op must emit, in order.
	ExpectEvents []string `yaml:"expectEvents"`
	// ExpectAmount checks the amount returned by claims.
	ExpectAmount *math.HexOrDecimal256 `yaml:"expectAmount"`

	Expect *Expect `yaml:"expect"`
}

// Expect checks state after the preceding steps.
type Expect struct {
	Resolver    string                           `yaml:"resolver"`
	Active      *bool                            `yaml:"active"`
	SelfStake   *math.HexOrDecimal256            `yaml:"selfStake"`
	Penalized   *math.HexOrDecimal256            `yaml:"penalized"`
	Delegated   *math.HexOrDecimal256            `yaml:"delegated"`
	PendingExit *math.HexOrDecimal256            `yaml:"pendingExit"`
	Balances    map[string]*math.HexOrDecimal256 `yaml:"balances"`
	ActiveCount *uint64                          `yaml:"activeCount"`
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open script")
	}
	defer f.Close()

	s, err := decode(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return s, nil
}

// Parse decodes a script.
func Parse(data []byte) (*Script, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty script")
		}
		return nil, errors.Wrap(err, "decode script")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	for i, st := range s.Steps {
		if !ops[st.Op] {
			return errors.Errorf("steps[%d]: unknown op %q", i, st.Op)
		}
		switch st.Op {
		case OpAdvance:
			if st.Duration <= 0 {
				return errors.Errorf("steps[%d]: advance needs a positive duration", i)
			}
		case OpExpect:
			if st.Expect == nil {
				return errors.Errorf("steps[%d]: expect needs an expect block", i)
			}
		case OpSelect:
		default:
			if st.Who == "" {
				return errors.Errorf("steps[%d]: %s needs who", i, st.Op)
			}
		}
	}
	return nil
}

// Address resolves an account name.
func Address(name string) (rnet.Address, error) {
	if strings.HasPrefix(name, "0x") {
		return rnet.ParseAddress(name)
	}
	if name == "" {
		return rnet.Address{}, errors.New("empty account name")
	}
	return rnet.BytesToAddress([]byte(name)), nil
}
