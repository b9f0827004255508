// Copyright 2026 The Foundry Authors
// This file is part of Foundry.
//
// Foundry is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Foundry is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Foundry. If not, see <http://www.gnu.org/licenses/>.

// forkcheat is an operator tool around the fork-state backend: it probes
// remote account state through the same client, cache, and retry paths the
// harness uses, which makes endpoint misconfiguration visible before a test
// run burns time on it.
package main

import (
	"fmt"
	"os"

	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/cryptohub-digital/foundry/core/state/remotedb"
)

var endpointsFlag = cli.StringFlag{
	Name:  "endpoints",
	Usage: "Path to the TOML endpoints file ([rpc_endpoints] table)",
	Value: "endpoints.toml",
}

var verbosityFlag = cli.StringFlag{
	Name:  "verbosity",
	Usage: "Logging verbosity (lvl, trace, debug, info, warn, error, crit)",
	Value: "info",
}

var aliasFlag = cli.StringFlag{
	Name:     "alias",
	Usage:    "Endpoint alias to probe",
	Required: true,
}

var heightFlag = cli.Uint64Flag{
	Name:  "height",
	Usage: "Block height to pin (defaults to the current head)",
}

var addressFlag = cli.StringFlag{
	Name:     "address",
	Usage:    "Account address",
	Required: true,
}

var slotFlag = cli.StringFlag{
	Name:  "slot",
	Usage: "Storage slot to read instead of the account summary",
}

func main() {
	app := &cli.App{
		Name:  "forkcheat",
		Usage: "probe remote state endpoints used by the fork-state backend",
		Flags: []cli.Flag{&endpointsFlag, &verbosityFlag},
		Commands: []*cli.Command{
			{
				Name:   "aliases",
				Usage:  "list configured endpoint aliases",
				Action: listAliases,
			},
			{
				Name:   "probe",
				Usage:  "fetch an account or storage slot at a pinned height",
				Flags:  []cli.Flag{&aliasFlag, &heightFlag, &addressFlag, &slotFlag},
				Action: probe,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(cliCtx *cli.Context) (log.Logger, error) {
	lvl, err := log.LvlFromString(cliCtx.String(verbosityFlag.Name))
	if err != nil {
		return nil, err
	}
	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(lvl, log.StderrHandler))
	return logger, nil
}

func loadEndpoints(cliCtx *cli.Context, logger log.Logger) (*remotedb.Endpoints, error) {
	return remotedb.LoadEndpoints(cliCtx.String(endpointsFlag.Name), logger)
}

func listAliases(cliCtx *cli.Context) error {
	logger, err := setupLogger(cliCtx)
	if err != nil {
		return err
	}
	endpoints, err := loadEndpoints(cliCtx, logger)
	if err != nil {
		return err
	}
	for _, alias := range endpoints.Aliases() {
		fmt.Println(alias)
	}
	return nil
}

func probe(cliCtx *cli.Context) error {
	logger, err := setupLogger(cliCtx)
	if err != nil {
		return err
	}
	endpoints, err := loadEndpoints(cliCtx, logger)
	if err != nil {
		return err
	}
	client, err := endpoints.Client(cliCtx.String(aliasFlag.Name))
	if err != nil {
		return err
	}

	ctx := cliCtx.Context
	height := cliCtx.Uint64(heightFlag.Name)
	if !cliCtx.IsSet(heightFlag.Name) {
		height, err = client.LatestHeight(ctx)
		if err != nil {
			return err
		}
		logger.Info("pinned to current head", "height", height)
	}

	addr := libcommon.HexToAddress(cliCtx.String(addressFlag.Name))
	if slot := cliCtx.String(slotFlag.Name); slot != "" {
		value, err := client.StorageAt(ctx, addr, libcommon.HexToHash(slot), height)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s[%s]@%d = %s\n", client.Alias(), addr.Hex(), slot, height, value.Hex())
		return nil
	}

	acc, err := client.AccountAt(ctx, addr, height)
	if err != nil {
		return err
	}
	fmt.Printf("endpoint: %s\naddress:  %s\nheight:   %d\nbalance:  %s\nnonce:    %d\ncode:     %d bytes\n",
		client.Alias(), addr.Hex(), height, acc.Balance.Dec(), acc.Nonce, len(acc.Code))
	return nil
}
