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
	"fmt"

	"github.com/urfave/cli/v3"
)

const (
	defaultListLimit = 100
)

func getCmd() *cli.Command {
	return &cli.Command{
		Name:                  "get",
		EnableShellCompletion: true,
		Usage:                 "Show one persisted record",
		Description: `Read a record from the configured store by the ID it was given when it
was first persisted.

  recordpipe get --db records.db --id 0f8fad5b-d9cb-469f-a165-70867728950e`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Required: true,
				Usage:    "Record ID",
			},
			outputFlag(),
			formatFlag(),
		}, storeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id := cmd.String("id")
			rec, err := s.runtime.Store.Find(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get record %q: %w", id, err)
			}
			return writeOutput(ctx, cmd, rec)
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:                  "list",
		EnableShellCompletion: true,
		Usage:                 "List persisted records",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Value: defaultListLimit,
				Usage: "Maximum number of records to list, 0 for all",
			},
			outputFlag(),
			formatFlag(),
		}, storeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			limit := int(cmd.Int("limit"))
			records := recordsView{}
			for rec, err := range s.runtime.Store.FindAll(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list records: %w", err)
				}
				if limit > 0 && len(records) >= limit {
					break
				}
				records = append(records, rec)
			}
			return writeOutput(ctx, cmd, records)
		},
	}
}
