// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/resolvernet/harness"
	"github.com/vechain/resolvernet/log"
	"github.com/vechain/resolvernet/metrics"
	"github.com/vechain/resolvernet/node"
	"github.com/vechain/resolvernet/vrf"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Resolvernet",
		Usage:     "Node of the resolver network",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
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
			verbosityFlag,
			logFormatFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:      "replay",
				Usage:     "replay an operation script on an in-memory node",
				ArgsUsage: "<script>",
				Flags: []cli.Flag{
					dumpFlag,
					progressFlag,
					verbosityFlag,
					logFormatFlag,
				},
				Action: replayAction,
			},
			{
				Name:  "vrfkey",
				Usage: "print the VRF public key, generating the key if missing",
				Flags: []cli.Flag{
					configFlag,
					dataDirFlag,
					vrfKeyFlag,
				},
				Action: vrfKeyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	level, err := initLogger(ctx)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.API.EnableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	n, err := node.New(cfg, node.Options{LogLevel: level})
	if err != nil {
		return errors.WithMessage(err, "start node")
	}
	defer func() {
		logger.Info("closing node...")
		if err := n.Close(); err != nil {
			logger.Warn("failed to close node", "error", err)
		}
	}()

	printStartupMessage(cfg, n)
	return n.Run(handleExitSignal())
}

func replayAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("expect exactly one script")
	}

	script, err := harness.Load(ctx.Args().First())
	if err != nil {
		return err
	}
	var (
		bar     *pb.ProgressBar
		observe func(*harness.StepResult)
	)
	if ctx.Bool(progressFlag.Name) {
		bar = pb.New(len(script.Steps)).SetMaxWidth(90)
		bar.Output = os.Stderr
		bar.Start()
		observe = func(*harness.StepResult) { bar.Increment() }
	}
	report, err := harness.RunObserved(handleExitSignal(), script, observe)
	if bar != nil {
		bar.Finish()
	}
	if report != nil {
		printReport(os.Stdout, report, ctx.Bool(dumpFlag.Name))
	}
	return err
}

func vrfKeyAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	keyFile := node.VRFKeyFile(cfg)
	if keyFile == "" {
		return errors.New("either data-dir or vrf-key is required")
	}
	key, err := vrf.LoadOrGenerateKey(keyFile)
	if err != nil {
		return err
	}
	fmt.Printf("key file: %s\n", keyFile)
	fmt.Printf("pk: %s\n", hexutil.Encode(vrf.NewSource(key, nil).PublicKey()))
	return nil
}
