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
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/recordpipe/pkg/config"
	"github.com/NVIDIA/recordpipe/pkg/errors"
	"github.com/NVIDIA/recordpipe/pkg/server"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

func computeCmd() *cli.Command {
	return &cli.Command{
		Name:                  "compute",
		EnableShellCompletion: true,
		Usage:                 "Run one computation without a record",

		// points are x,y pairs and must not be split on the comma
		DisableSliceFlagSeparator: true,

		Description: `Compute the result for a single variant given on the command line.
Fields are name=value pairs and points are x,y pairs.

# Examples

  recordpipe compute --tag rectangle --field length=3 --field height=4
  recordpipe compute --tag polygon --point 0,0 --point 4,0 --point 4,3
  recordpipe compute --tag expense --field amount=120 --field tax_rate=0.2 -t json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tag",
				Required: true,
				Usage:    "Variant tag (see the tags command for supported values)",
			},
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "Numeric field as name=value, can be repeated",
			},
			&cli.StringSliceFlag{
				Name:    "point",
				Aliases: []string{"p"},
				Usage:   "Point as x,y, can be repeated",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			fields, err := parseFields(cmd.StringSlice("field"))
			if err != nil {
				return err
			}
			points, err := parsePoints(cmd.StringSlice("point"))
			if err != nil {
				return err
			}

			reg, err := config.NewRegistry()
			if err != nil {
				return err
			}

			res, err := reg.Compute(variant.New(variant.Tag(cmd.String("tag")), fields, points...))
			if err != nil {
				return fmt.Errorf("computation failed: %w", err)
			}

			return writeOutput(ctx, cmd, resultView(res))
		},
	}
}

func tagsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "tags",
		EnableShellCompletion: true,
		Usage:                 "List the variant tags with a registered computation",
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			reg, err := config.NewRegistry()
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, tagsView(server.DescribeTags(reg.Tags())))
		},
	}
}

// parseFields parses name=value pairs. A repeated name is an error.
func parseFields(pairs []string) (map[string]float64, error) {
	fields := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid field %q, expected name=value", pair))
		}
		if _, dup := fields[key]; dup {
			return nil, errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("field %q given more than once", key))
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("field %q is not a number", key), err, map[string]any{"value": value})
		}
		fields[key] = f
	}
	return fields, nil
}

// parsePoints parses x,y pairs in order.
func parsePoints(pairs []string) ([]variant.Point, error) {
	points := make([]variant.Point, 0, len(pairs))
	for _, pair := range pairs {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid point %q, expected x,y", pair))
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if errX != nil || errY != nil {
			return nil, errors.New(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid point %q, coordinates must be numbers", pair))
		}
		points = append(points, variant.Point{X: x, Y: y})
	}
	return points, nil
}
