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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/NVIDIA/recordpipe/pkg/header"
	"github.com/NVIDIA/recordpipe/pkg/pipeline"
	"github.com/NVIDIA/recordpipe/pkg/record"
	"github.com/NVIDIA/recordpipe/pkg/serializer"
	"github.com/NVIDIA/recordpipe/pkg/server"
	"github.com/NVIDIA/recordpipe/pkg/validation"
	"github.com/NVIDIA/recordpipe/pkg/variant"
)

// Views give command output a row layout for --format=table. JSON and YAML
// encode them like the wrapped type, plus the header on reports.

// batchReport is the process command's document.
type batchReport struct {
	header.Header        `json:",inline" yaml:",inline"`
	pipeline.BatchResult `json:",inline" yaml:",inline"`
}

// validationReport is the validate command's document.
type validationReport struct {
	header.Header `json:",inline" yaml:",inline"`
	Total         int     `json:"total" yaml:"total"`
	Accepted      int     `json:"accepted" yaml:"accepted"`
	Checks        []check `json:"checks" yaml:"checks"`
}

type recordsView []record.Record

type resultView variant.Result

type tagsView []server.TagInfo

var (
	_ serializer.Tabular = batchReport{}
	_ serializer.Tabular = recordsView{}
	_ serializer.Tabular = resultView{}
	_ serializer.Tabular = tagsView{}
	_ serializer.Tabular = validationReport{}
)

func (b batchReport) TableHeader() []string {
	return []string{"#", "STATUS", "ID", "NAME", "TAG", "VALUE", "DETAIL"}
}

func (b batchReport) TableRows() [][]string {
	rows := make([][]string, 0, len(b.Results))
	for i, res := range b.Results {
		rec := res.Record()
		rows = append(rows, []string{
			strconv.Itoa(i),
			string(res.Status),
			rec.ID,
			rec.Name,
			string(rec.Variant.Tag()),
			formatResult(rec.Result),
			resultDetail(res),
		})
	}
	return rows
}

func resultDetail(res pipeline.Result) string {
	switch {
	case res.Persisted != nil && res.Persisted.Duplicate:
		return "duplicate"
	case res.Rejection != nil:
		return joinViolations(res.Rejection.Violations)
	case res.Failure != nil:
		return fmt.Sprintf("%s: %s", res.Failure.Stage, res.Failure.Message)
	default:
		return ""
	}
}

func (r recordsView) TableHeader() []string {
	return []string{"ID", "NAME", "CATEGORY", "QUANTITY", "TAG", "VALUE", "UNIT"}
}

func (r recordsView) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, rec := range r {
		unit := ""
		if rec.Result != nil {
			unit = rec.Result.Unit
		}
		rows = append(rows, []string{
			rec.ID,
			rec.Name,
			rec.Category,
			strconv.Itoa(rec.Quantity),
			string(rec.Variant.Tag()),
			formatResult(rec.Result),
			unit,
		})
	}
	return rows
}

func (r resultView) TableHeader() []string {
	return []string{"TAG", "VALUE", "UNIT", "DETAILS"}
}

func (r resultView) TableRows() [][]string {
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]string, 0, len(keys))
	for _, k := range keys {
		details = append(details, fmt.Sprintf("%s=%s", k, formatFloat(r.Details[k])))
	}

	return [][]string{{
		string(r.Tag),
		formatFloat(r.Value),
		r.Unit,
		strings.Join(details, " "),
	}}
}

func (t tagsView) TableHeader() []string {
	return []string{"TAG", "NAME"}
}

func (t tagsView) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, info := range t {
		rows = append(rows, []string{string(info.Tag), info.DisplayName})
	}
	return rows
}

func (c validationReport) TableHeader() []string {
	return []string{"#", "NAME", "TAG", "VALUE", "STATUS", "DETAIL"}
}

func (c validationReport) TableRows() [][]string {
	rows := make([][]string, 0, len(c.Checks))
	for _, ch := range c.Checks {
		detail := ch.Error
		if detail == "" {
			detail = joinViolations(ch.Violations)
		}
		rows = append(rows, []string{
			strconv.Itoa(ch.Index),
			ch.Name,
			string(ch.Tag),
			formatResult(ch.Result),
			ch.Status,
			detail,
		})
	}
	return rows
}

func joinViolations(vs []validation.Violation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

func formatResult(res *variant.Result) string {
	if res == nil {
		return ""
	}
	return formatFloat(res.Value)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
