// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/resolvernet/config"
	"github.com/vechain/resolvernet/harness"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/resolvers"
	"github.com/vechain/resolvernet/rnet"
)

func runWithFlags(t *testing.T, args ...string) *config.Config {
	var cfg *config.Config
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		vrfKeyFlag,
		cacheFlag,
		ntpServerFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiEventsLimitFlag,
		apiRateLimitFlag,
		apiRateBurstFlag,
		adminAddrFlag,
		enableAPILogsFlag,
		enableMetricsFlag,
	}
	app.Action = func(ctx *cli.Context) (err error) {
		cfg, err = loadConfig(ctx)
		return err
	}
	require.NoError(t, app.Run(append([]string{"resolvernet"}, args...)))
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := runWithFlags(t)
	assert.Equal(t, config.Default().API, cfg.API)
	assert.Empty(t, cfg.DataDir)
}

func TestLoadConfigFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := runWithFlags(t,
		"--data-dir", dir,
		"--api-addr", "localhost:0",
		"--api-cors", "https://example.org",
		"--api-events-limit", "10",
		"--api-rate-limit", "2.5",
		"--admin-addr", "localhost:2113",
		"--enable-metrics",
		"--cache", "256",
		"--ntp-server", "pool.ntp.org",
	)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "localhost:0", cfg.API.Addr)
	assert.Equal(t, "https://example.org", cfg.API.AllowedOrigins)
	assert.Equal(t, uint64(10), cfg.API.EventsLimit)
	assert.Equal(t, 2.5, cfg.API.RateLimit)
	assert.Equal(t, 20, cfg.API.RateBurst)
	assert.Equal(t, "localhost:2113", cfg.API.AdminAddr)
	assert.True(t, cfg.API.EnableMetrics)
	assert.False(t, cfg.API.EnableReqLogger)
	assert.Equal(t, 256, cfg.Cache)
	assert.Equal(t, "pool.ntp.org", cfg.NTPServer)
}

func TestPrintReport(t *testing.T) {
	alice := rnet.BytesToAddress([]byte("alice"))
	report := &harness.Report{
		Name: "demo",
		Steps: []*harness.StepResult{
			{Index: 0, Op: harness.OpSelfStake, Time: 1000, Events: []*resolvers.Event{
				{Seq: 1, Kind: resolvers.KindStakeChanged, Resolver: alice},
			}},
			{Index: 1, Op: harness.OpClaimUndelegate, Time: 1000, Error: "no pending exit"},
		},
		Totals: &resolvers.Totals{
			SelfStake:  big.NewInt(600),
			Delegated:  big.NewInt(0),
			Penalized:  big.NewInt(0),
			Registered: 1,
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report, false)
	out := buf.String()
	assert.Contains(t, out, "demo\n")
	assert.Contains(t, out, "events=StakeChanged")
	assert.Contains(t, out, `error="no pending exit"`)
	assert.Contains(t, out, "1 registered, 0 active; self stake 600")

	buf.Reset()
	printReport(&buf, report, true)
	assert.Contains(t, buf.String(), "Name: (string) (len=4) \"demo\"")
}

func TestReplayScript(t *testing.T) {
	s, err := harness.Load("../../harness/testdata/lifecycle.yaml")
	require.NoError(t, err)

	report, err := harness.Run(context.Background(), s)
	require.NoError(t, err)

	var buf bytes.Buffer
	printReport(&buf, report, false)
	assert.Contains(t, buf.String(), "2 registered, 2 active")
}

func TestInitLoggerFormat(t *testing.T) {
	old := log.Root()
	t.Cleanup(func() { log.SetDefault(old) })

	run := func(args ...string) error {
		app := cli.NewApp()
		app.Flags = []cli.Flag{verbosityFlag, logFormatFlag}
		app.Action = func(ctx *cli.Context) error {
			_, err := initLogger(ctx)
			return err
		}
		return app.Run(append([]string{"resolvernet"}, args...))
	}
	assert.NoError(t, run("--log-format", "logfmt", "--verbosity", "4"))
	assert.Error(t, run("--log-format", "xml"))
}
