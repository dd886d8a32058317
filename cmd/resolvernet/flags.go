// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/resolvernet/log"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path to a YAML config file",
		EnvVar: "RESOLVERNET_CONFIG",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for the state and event databases, in memory if empty",
	}
	vrfKeyFlag = cli.StringFlag{
		Name:  "vrf-key",
		Usage: "file holding the VRF key, defaults to vrf.key under the data dir",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "state cache size in MiB",
	}
	ntpServerFlag = cli.StringFlag{
		Name:  "ntp-server",
		Usage: "NTP server used to detect clock drift, e.g. pool.ntp.org",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	apiRateLimitFlag = cli.Float64Flag{
		Name:  "api-rate-limit",
		Usage: "requests per second allowed per client, 0 disables limiting",
	}
	apiRateBurstFlag = cli.IntFlag{
		Name:  "api-rate-burst",
		Value: 20,
		Usage: "requests a client may burst above the rate limit",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Usage: "admin service listening address, disabled if empty",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection, served on /metrics",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Value: log.FormatTerminal,
		Usage: "log output format (terminal, json, logfmt)",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "dump the full replay report",
	}
	progressFlag = cli.BoolFlag{
		Name:  "progress",
		Usage: "show a progress bar while replaying",
	}
)
