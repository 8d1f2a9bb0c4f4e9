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

	"github.com/NVIDIA/recordpipe/pkg/config"
	"github.com/NVIDIA/recordpipe/pkg/header"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

const checkError = "error"

// check is the dry-run outcome for one input record.
type check struct {
	Index      int                    `json:"index" yaml:"index"`
	Name       string                 `json:"name" yaml:"name"`
	Tag        variant.Tag            `json:"tag" yaml:"tag"`
	Status     string                 `json:"status" yaml:"status"`
	Result     *variant.Result        `json:"result,omitempty" yaml:"result,omitempty"`
	Violations []validation.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "validate",
		EnableShellCompletion: true,
		Usage:                 "Compute and validate records without saving them",
		Description: `Run the compute and validate stages over every record in the input and
report whether the configured validators would accept it. Nothing is written
to the store, so this is safe to run against production configuration.

Each record reports one status:

  accepted - every validator accepted the computed record
  rejected - at least one validator refused it, with the reasons
  error    - the computation failed, for example an unsupported tag

# Examples

Check records against the validators in a configuration file:
  recordpipe --config recordpipe.yaml validate -i records.yaml

Fail a CI job when any record would be rejected:
  recordpipe validate -i records.yaml --fail-on-error`,
		Flags: []cli.Flag{
			inputFlag(),
			&cli.BoolFlag{
				Name:  "fail-on-error",
				Usage: "Exit with non-zero status if any record is rejected or fails to compute",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			records, err := readRecords(ctx, cmd.String("input"))
			if err != nil {
				return err
			}

			reg, err := config.NewRegistry()
			if err != nil {
				return err
			}
			v, err := config.BuildValidator(cfg.Validation)
			if err != nil {
				return err
			}

			checks := make([]check, 0, len(records))
			bad := 0
			for i, rec := range records {
				if err := ctx.Err(); err != nil {
					return err
				}

				ch := check{Index: i, Name: rec.Name, Tag: rec.Variant.Tag()}
				res, err := reg.Compute(rec.Variant)
				if err != nil {
					ch.Status = checkError
					ch.Error = err.Error()
					bad++
					checks = append(checks, ch)
					continue
				}
				ch.Result = &res

				out := v.Validate(ctx, rec.WithResult(res))
				ch.Status = string(out.Status)
				ch.Violations = out.Violations
				if !out.Accepted() {
					bad++
				}
				checks = append(checks, ch)
			}

			slog.Info("validation completed",
				"total", len(checks),
				"accepted", len(checks)-bad,
				"notAccepted", bad)

			report := validationReport{
				Header:   header.New(header.KindValidationReport, version, header.WithSource(cmd.String("input"))),
				Total:    len(checks),
				Accepted: len(checks) - bad,
				Checks:   checks,
			}
			if err := writeOutput(ctx, cmd, report); err != nil {
				return err
			}

			if cmd.Bool("fail-on-error") && bad > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d records would not be persisted", bad, len(checks)), exitFailed)
			}
			return nil
		},
	}
}
