// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recordpipe/pkg/api"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "serve",
		EnableShellCompletion: true,
		Usage:                 "Run the HTTP service",
		Description: `Serve the record API until interrupted. The store, validators and retry
policy come from --config exactly as for the other commands.

  POST /v1/records        process one record
  GET  /v1/records        list persisted records
  GET  /v1/records/{id}   read one record
  POST /v1/compute        compute a variant
  GET  /v1/tags           list supported tags
  GET  /health, /ready, /metrics`,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port, overrides the configuration",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Listen address, overrides the configuration",
			},
		}, storeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("port") {
				cfg.Server.Port = int(cmd.Int("port"))
			}
			if cmd.IsSet("address") {
				cfg.Server.Address = cmd.String("address")
			}
			return api.Run(ctx, cfg, version)
		},
	}
}
