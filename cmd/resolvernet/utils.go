// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/resolvernet/config"
	"github.com/vechain/resolvernet/harness"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/node"
)

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	level := new(slog.LevelVar)
	level.Set(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))

	format := ctx.String(logFormatFlag.Name)
	out := os.Stderr
	if format == log.FormatJSON {
		out = os.Stdout
	}
	useColor := (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) &&
		os.Getenv("TERM") != "dumb"

	handler, err := log.NewHandler(format, out, level, useColor)
	if err != nil {
		return nil, err
	}
	log.SetDefault(log.NewLogger(handler))
	return level, nil
}

// loadConfig reads the config file and environment, then applies the flags
// given explicitly on the command line.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	applyFlags(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(vrfKeyFlag.Name) {
		cfg.VRFKeyFile = ctx.String(vrfKeyFlag.Name)
	}
	if ctx.IsSet(cacheFlag.Name) {
		cfg.Cache = ctx.Int(cacheFlag.Name)
	}
	if ctx.IsSet(ntpServerFlag.Name) {
		cfg.NTPServer = ctx.String(ntpServerFlag.Name)
	}
	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.API.Addr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.API.AllowedOrigins = ctx.String(apiCorsFlag.Name)
	}
	if ctx.IsSet(apiEventsLimitFlag.Name) {
		cfg.API.EventsLimit = ctx.Uint64(apiEventsLimitFlag.Name)
	}
	if ctx.IsSet(apiRateLimitFlag.Name) {
		cfg.API.RateLimit = ctx.Float64(apiRateLimitFlag.Name)
		cfg.API.RateBurst = ctx.Int(apiRateBurstFlag.Name)
	}
	if ctx.IsSet(adminAddrFlag.Name) {
		cfg.API.AdminAddr = ctx.String(adminAddrFlag.Name)
	}
	if ctx.IsSet(enableAPILogsFlag.Name) {
		cfg.API.EnableReqLogger = ctx.Bool(enableAPILogsFlag.Name)
	}
	if ctx.IsSet(enableMetricsFlag.Name) {
		cfg.API.EnableMetrics = ctx.Bool(enableMetricsFlag.Name)
	}
}

// handleExitSignal returns a context canceled on the first interrupt or
// terminate signal.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(cfg *config.Config, n *node.Node) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "Memory"
	}
	admin := cfg.API.AdminAddr
	if admin == "" {
		admin = "Disabled"
	}
	params := n.Network.Params()

	fmt.Printf(`Starting %v
    Network     [ min self stake %v | activation %v | credibility %v ]
    Data dir    [ %v ]
    VRF key     [ %v ]
    API portal  [ http://%v/ ]
    Admin       [ %v ]
`,
		fullVersion(),
		params.MinimumSelfStake, params.ActivationStakeAmount, params.RequiredCredibility,
		dataDir,
		hexutil.Encode(n.Randomness.PublicKey()),
		cfg.API.Addr,
		admin,
	)
}

func printReport(w io.Writer, report *harness.Report, dump bool) {
	if dump {
		cfg := spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		cfg.Fdump(w, report)
		return
	}

	if report.Name != "" {
		fmt.Fprintf(w, "%s\n", report.Name)
	}
	for _, st := range report.Steps {
		kinds := make([]string, 0, len(st.Events))
		for _, ev := range st.Events {
			kinds = append(kinds, ev.Kind.String())
		}
		line := fmt.Sprintf("#%-3d %-20s t=%d", st.Index, st.Op, st.Time)
		if st.Amount != nil {
			line += fmt.Sprintf(" amount=%s", st.Amount)
		}
		if len(st.Selected) > 0 {
			line += fmt.Sprintf(" selected=%d", len(st.Selected))
		}
		if st.Error != "" {
			line += fmt.Sprintf(" error=%q", st.Error)
		}
		if len(kinds) > 0 {
			line += " events=" + strings.Join(kinds, ",")
		}
		fmt.Fprintln(w, line)
	}
	if report.Totals != nil {
		fmt.Fprintf(w, "resolvers: %d registered, %d active; self stake %s, delegated %s, penalized %s\n",
			report.Totals.Registered, report.Totals.Active,
			report.Totals.SelfStake, report.Totals.Delegated, report.Totals.Penalized)
	}
}
