// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/resolvernet/currency"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

const sample = `
dataDir: /var/lib/resolvernet
network:
  minimumSelfStake: 50
  activationStakeAmount: "0x1f4"
  requiredCredibility: 40
  undelegateTime: 1h
  penaltyTokenLockTime: 30m
  stakeAsset: RSV
  governance:
    - "0x00000000000000000000000000000000000000ff"
credibility:
  initial: 50
  max: 90
api:
  addr: ":9000"
  rateLimit: 5.5
  rateBurst: 20
genesis:
  endowments:
    - account: "0x0000000000000000000000000000000000000001"
      amount: 1000
    - account: "0x0000000000000000000000000000000000000002"
      asset: RSV
      amount: "0x64"
  credibility:
    - identity: "0x0000000000000000000000000000000000000001"
      score: 80
`

func TestDefaultsMatchNetworkDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p := cfg.Params()
	def := resolvers.DefaultParams()
	assert.Equal(t, def.MinimumSelfStake.String(), p.MinimumSelfStake.String())
	assert.Equal(t, def.ActivationStakeAmount.String(), p.ActivationStakeAmount.String())
	assert.Equal(t, def.RequiredCredibility, p.RequiredCredibility)
	assert.Equal(t, def.UndelegateTime, p.UndelegateTime)
	assert.Equal(t, def.PenaltyTokenLockTime, p.PenaltyTokenLockTime)
	assert.Equal(t, currency.Native, p.StakeAsset)
	assert.Equal(t, "localhost:8669", cfg.API.Addr)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	p := cfg.Params()
	assert.Equal(t, "50", p.MinimumSelfStake.String())
	assert.Equal(t, "500", p.ActivationStakeAmount.String())
	assert.Equal(t, uint8(40), p.RequiredCredibility)
	assert.Equal(t, uint64(time.Hour.Milliseconds()), p.UndelegateTime)
	assert.Equal(t, uint64((30 * time.Minute).Milliseconds()), p.PenaltyTokenLockTime)
	assert.Equal(t, currency.Token("RSV"), p.StakeAsset)
	assert.Equal(t, []rnet.Address{rnet.MustParseAddress("0x00000000000000000000000000000000000000ff")}, p.Governance)

	assert.Equal(t, uint8(50), cfg.Credibility.Initial)
	assert.Equal(t, ":9000", cfg.API.Addr)
	assert.Equal(t, 5.5, cfg.API.RateLimit)
	// untouched keys keep their defaults
	assert.Equal(t, uint64(1000), cfg.API.EventsLimit)

	require.Len(t, cfg.Genesis.Endowments, 2)
	assert.Equal(t, currency.Native, Asset(cfg.Genesis.Endowments[0].Asset))
	assert.Equal(t, currency.Token("RSV"), Asset(cfg.Genesis.Endowments[1].Asset))
	assert.Equal(t, "100", (*big.Int)(&cfg.Genesis.Endowments[1].Amount).String())
	require.Len(t, cfg.Genesis.Credibility, 1)
	assert.Equal(t, uint8(80), cfg.Genesis.Credibility[0].Score)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "network:\n  minimumStake: 5\n"},
		{"activation below minimum", "network:\n  minimumSelfStake: 10\n  activationStakeAmount: 5\n"},
		{"initial above max", "credibility:\n  initial: 99\n  max: 10\n"},
		{"genesis score above max", "genesis:\n  credibility:\n    - identity: \"0x0000000000000000000000000000000000000001\"\n      score: 101\n"},
		{"zero endowment account", "genesis:\n  endowments:\n    - amount: 5\n"},
		{"zero governance", "network:\n  governance: [\"0x0000000000000000000000000000000000000000\"]\n"},
		{"bad amount", "network:\n  minimumSelfStake: lots\n"},
		{"negative cache", "cache: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Setenv("RESOLVERNET_DATA_DIR", "/tmp/elsewhere")
	t.Setenv("RESOLVERNET_API_ADDR", ":9100")
	t.Setenv("RESOLVERNET_NETWORK_REQUIRED_CREDIBILITY", "45")
	t.Setenv("RESOLVERNET_NETWORK_UNDELEGATE_TIME", "2h")
	t.Setenv("RESOLVERNET_NETWORK_MINIMUM_SELF_STAKE", "60")
	t.Setenv("RESOLVERNET_NTP_SERVER", "time.example.org")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", cfg.DataDir)
	assert.Equal(t, ":9100", cfg.API.Addr)
	assert.Equal(t, "time.example.org", cfg.NTPServer)
	assert.Equal(t, 64, cfg.Cache)
	p := cfg.Params()
	assert.Equal(t, uint8(45), p.RequiredCredibility)
	assert.Equal(t, uint64((2 * time.Hour).Milliseconds()), p.UndelegateTime)
	assert.Equal(t, "60", p.MinimumSelfStake.String())
	// file values survive where no variable is set
	assert.Equal(t, "500", p.ActivationStakeAmount.String())
	assert.Len(t, cfg.Genesis.Endowments, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
