// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package verify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Signature verification metrics
var (
	mVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyauth",
		Subsystem: "verify",
		Name:      "signatures",
		Help:      "Number of signatures verified by scheme and result",
	}, []string{"scheme", "result"})

	mBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "keyauth",
		Subsystem: "verify",
		Name:      "batch_duration_seconds",
		Help:      "Time spent verifying a batch of signatures",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)
