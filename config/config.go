// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the node configuration from a YAML file with
// RESOLVERNET_ prefixed environment overrides.
package config

import (
	"bytes"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/resolvernet/credibility"
	"github.com/vechain/resolvernet/currency"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

const EnvPrefix = "resolvernet"

type Config struct {
	// DataDir holds the stores; empty keeps everything in memory.
	DataDir    string `yaml:"dataDir"    split_words:"true"`
	VRFKeyFile string `yaml:"vrfKeyFile" split_words:"true"`
	// Cache is the state cache in MiB, capped at half the physical memory.
	Cache int `yaml:"cache"`
	// NTPServer is queried for clock drift while running; empty disables it.
	NTPServer string `yaml:"ntpServer" envconfig:"NTP_SERVER"`

	Network     NetworkConfig     `yaml:"network"`
	Credibility CredibilityConfig `yaml:"credibility"`
	API         APIConfig         `yaml:"api"`
	Genesis     Genesis           `yaml:"genesis" ignored:"true"`
}

type NetworkConfig struct {
	MinimumSelfStake      math.HexOrDecimal256 `yaml:"minimumSelfStake"      split_words:"true"`
	ActivationStakeAmount math.HexOrDecimal256 `yaml:"activationStakeAmount" split_words:"true"`
	RequiredCredibility   uint8                `yaml:"requiredCredibility"   split_words:"true"`
	UndelegateTime        time.Duration        `yaml:"undelegateTime"        split_words:"true"`
	PenaltyTokenLockTime  time.Duration        `yaml:"penaltyTokenLockTime"  split_words:"true"`
	// StakeAsset is empty or "native" for the native asset, otherwise a token symbol.
	StakeAsset string         `yaml:"stakeAsset" split_words:"true"`
	Governance []rnet.Address `yaml:"governance"`
}

type CredibilityConfig struct {
	Initial uint8 `yaml:"initial"`
	Max     uint8 `yaml:"max"`
}

type APIConfig struct {
	Addr               string        `yaml:"addr"`
	AdminAddr          string        `yaml:"adminAddr"          split_words:"true"`
	AllowedOrigins     string        `yaml:"allowedOrigins"     split_words:"true"`
	EventsLimit        uint64        `yaml:"eventsLimit"        split_words:"true"`
	RateLimit          float64       `yaml:"rateLimit"          split_words:"true"`
	RateBurst          int           `yaml:"rateBurst"          split_words:"true"`
	EnableMetrics      bool          `yaml:"enableMetrics"      split_words:"true"`
	EnableReqLogger    bool          `yaml:"enableReqLogger"    split_words:"true"`
	SlowQueryThreshold time.Duration `yaml:"slowQueryThreshold" split_words:"true"`
}

// Genesis is applied once to an empty store.
type Genesis struct {
	Endowments  []Endowment `yaml:"endowments"`
	Credibility []Score     `yaml:"credibility"`
}

type Endowment struct {
	Account rnet.Address         `yaml:"account"`
	Asset   string               `yaml:"asset"`
	Amount  math.HexOrDecimal256 `yaml:"amount"`
}

type Score struct {
	Identity rnet.Address `yaml:"identity"`
	Score    uint8        `yaml:"score"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Cache: 64,
		Network: NetworkConfig{
			MinimumSelfStake:      amount(resolvers.DefaultMinimumSelfStake),
			ActivationStakeAmount: amount(resolvers.DefaultActivationStakeAmount),
			RequiredCredibility:   resolvers.DefaultRequiredCredibility,
			UndelegateTime:        time.Duration(resolvers.DefaultUndelegateTime) * time.Millisecond,
			PenaltyTokenLockTime:  time.Duration(resolvers.DefaultPenaltyTokenLockTime) * time.Millisecond,
		},
		Credibility: CredibilityConfig{
			Initial: credibility.DefaultInitial,
			Max:     credibility.DefaultMax,
		},
		API: APIConfig{
			Addr:               "localhost:8669",
			AllowedOrigins:     "*",
			EventsLimit:        1000,
			SlowQueryThreshold: time.Second,
		},
	}
}

// Load reads path, when given, over the defaults and then applies the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open config")
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, errors.WithMessage(err, path)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrap(err, "decode config")
	}
	return nil
}

// Validate checks the config can produce a network.
func (c *Config) Validate() error {
	if c.Credibility.Initial > c.Credibility.Max {
		return errors.New("credibility: initial above max")
	}
	for i, s := range c.Genesis.Credibility {
		if s.Score > c.Credibility.Max {
			return errors.Errorf("genesis.credibility[%d]: score above max", i)
		}
	}
	for i, e := range c.Genesis.Endowments {
		if (*big.Int)(&e.Amount).Sign() < 0 {
			return errors.Errorf("genesis.endowments[%d]: negative amount", i)
		}
		if e.Account.IsZero() {
			return errors.Errorf("genesis.endowments[%d]: zero account", i)
		}
	}
	if c.Cache < 0 {
		return errors.New("cache: negative size")
	}
	if c.Network.UndelegateTime < 0 || c.Network.PenaltyTokenLockTime < 0 {
		return errors.New("network: negative lock time")
	}
	return errors.WithMessage(c.Params().Validate(), "network")
}

// Params builds the network params.
func (c *Config) Params() *resolvers.Params {
	return &resolvers.Params{
		MinimumSelfStake:      new(big.Int).Set((*big.Int)(&c.Network.MinimumSelfStake)),
		ActivationStakeAmount: new(big.Int).Set((*big.Int)(&c.Network.ActivationStakeAmount)),
		RequiredCredibility:   c.Network.RequiredCredibility,
		UndelegateTime:        uint64(c.Network.UndelegateTime.Milliseconds()),
		PenaltyTokenLockTime:  uint64(c.Network.PenaltyTokenLockTime.Milliseconds()),
		StakeAsset:            Asset(c.Network.StakeAsset),
		Governance:            append([]rnet.Address(nil), c.Network.Governance...),
	}
}

func amount(v *big.Int) math.HexOrDecimal256 {
	return math.HexOrDecimal256(*new(big.Int).Set(v))
}

// Asset maps a configured asset name onto its id.
func Asset(name string) rnet.Bytes32 {
	return currency.ByName(name)
}
