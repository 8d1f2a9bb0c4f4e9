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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recordpipe/pkg/header"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/serializer"
)

const (
	exitFailed   = 1
	exitRejected = 2
)

func processCmd() *cli.Command {
	return &cli.Command{
		Name:                  "process",
		EnableShellCompletion: true,
		Usage:                 "Compute, validate and persist a batch of records",
		Description: `Run every record in the input through the pipeline and report one
outcome per record, in input order:

  persisted - the record was computed, accepted and saved
  rejected  - validation refused the record, nothing was saved
  failed    - computation or persistence failed

Records are independent. A rejection or failure never stops the rest of the
batch. The input is a YAML or JSON list:

  - name: hallway rug
    quantity: 2
    variant:
      tag: rectangle
      length: 3
      height: 1.5
  - name: table top
    key: order-1042
    variant: {tag: circle, radius: 0.6}

The command exits 1 when any record failed. With --fail-on-reject it exits 2
when any record was rejected.

# Examples

Process records into a SQLite database:
  recordpipe process --db records.db -i records.yaml

Print a table of outcomes:
  recordpipe process -i records.yaml -t table`,
		Flags: append([]cli.Flag{
			inputFlag(),
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Maximum records processed at once (default: from configuration)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-reject",
				Usage: "Exit with status 2 if any record is rejected",
			},
			outputFlag(),
			formatFlag(),
		}, storeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			records, err := readRecords(ctx, cmd.String("input"))
			if err != nil {
				return err
			}

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			concurrency := int(cmd.Int("concurrency"))
			if concurrency < 1 {
				concurrency = s.cfg.Batch.Concurrency
			}

			batch := s.runtime.Orchestrator.ProcessBatch(ctx, records, concurrency)
			report := batchReport{
				Header:      header.New(header.KindBatchReport, version, header.WithSource(cmd.String("input"))),
				BatchResult: batch,
			}
			if err := writeOutput(ctx, cmd, report); err != nil {
				return err
			}

			if batch.Summary.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d records failed", batch.Summary.Failed, batch.Summary.Total), exitFailed)
			}
			if cmd.Bool("fail-on-reject") && batch.Summary.Rejected > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d records rejected", batch.Summary.Rejected, batch.Summary.Total), exitRejected)
			}
			return nil
		},
	}
}

// readRecords loads a list of records from a file or URL.
func readRecords(ctx context.Context, path string) ([]record.Record, error) {
	slog.Debug("loading records", "uri", path)

	records, err := serializer.FromFile[[]record.Record](ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load records from %q: %w", path, err)
	}
	return *records, nil
}
