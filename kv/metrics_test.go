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

package kv_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/kv/memkv"
)

// TestInstrumentCountsBackendOperations exercises kv.Instrument's wrapper directly, reading the package
// collectors via prometheus/testutil the way a handler serving /metrics
// would -- this package never opens that endpoint itself (see metrics.go).
func TestInstrumentCountsBackendOperations(t *testing.T) {
	b := kv.Instrument(memkv.New())

	before := testutil.ToFloat64(kv.MetricGet)
	beforeMiss := testutil.ToFloat64(kv.MetricGetMiss)
	_, _, err := b.Get([]byte("missing"))
	require.NoError(t, err)
	require.Equal(t, before+1, testutil.ToFloat64(kv.MetricGet))
	require.Equal(t, beforeMiss+1, testutil.ToFloat64(kv.MetricGetMiss))

	beforePut := testutil.ToFloat64(kv.MetricPut)
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.Equal(t, beforePut+1, testutil.ToFloat64(kv.MetricPut))

	beforeGet := testutil.ToFloat64(kv.MetricGet)
	v, ok, err := b.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)
	require.Equal(t, beforeGet+1, testutil.ToFloat64(kv.MetricGet))

	beforeDel := testutil.ToFloat64(kv.MetricDel)
	require.NoError(t, b.Delete([]byte("a")))
	require.Equal(t, beforeDel+1, testutil.ToFloat64(kv.MetricDel))

	beforeScan := testutil.ToFloat64(kv.MetricScan)
	it := b.Scan(nil, nil)
	it.Close()
	require.Equal(t, beforeScan+1, testutil.ToFloat64(kv.MetricScan))

	beforePrefix := testutil.ToFloat64(kv.MetricScan)
	it = b.PrefixScan([]byte("a"))
	it.Close()
	require.Equal(t, beforePrefix+1, testutil.ToFloat64(kv.MetricScan))
}

func TestInstrumentCountsTransactionCommitAndRollback(t *testing.T) {
	b := kv.Instrument(memkv.New())

	beforeCommit := testutil.ToFloat64(kv.MetricCommit)
	tx, err := b.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("a"), []byte("1")))
	require.NoError(t, tx.Commit())
	require.Equal(t, beforeCommit+1, testutil.ToFloat64(kv.MetricCommit))

	beforeRollback := testutil.ToFloat64(kv.MetricRollback)
	tx, err = b.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.Equal(t, beforeRollback+1, testutil.ToFloat64(kv.MetricRollback))
}
