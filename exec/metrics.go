// Copyright 2024 The Quadkit Authors. All rights reserved.
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

package exec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for RunQuery, grounded on the same package-level,
// opt-in-serving pattern as kv.Instrument's collectors: nothing here opens
// a /metrics endpoint, a caller that wants to serve them wires a handler.
// Exported so exec_test.go can assert on them directly via
// prometheus/testutil, the same way kv/metrics_test.go does for kv's
// collectors.
var (
	MetricQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadkit_exec_queries_total",
		Help: "Number of query forms run by RunQuery, by form and outcome.",
	}, []string{"form", "outcome"})
	MetricRowsReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadkit_exec_rows_returned_total",
		Help: "Total SELECT rows / CONSTRUCT-DESCRIBE quads returned across all queries.",
	})
)

func countRows(res Result) int {
	switch {
	case res.Rows != nil:
		return len(res.Rows)
	case res.Quads != nil:
		return len(res.Quads)
	default:
		return 0
	}
}
