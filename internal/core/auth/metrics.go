// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authorization metrics
var (
	mRationalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyauth",
		Subsystem: "auth",
		Name:      "rationalized",
		Help:      "Number of rationalization passes by status and verification path",
	}, []string{"status", "path"})

	mGroups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyauth",
		Subsystem: "auth",
		Name:      "signature_groups",
		Help:      "Number of signature groups that were reused or verified again",
	}, []string{"outcome"})

	mExpanded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyauth",
		Subsystem: "auth",
		Name:      "expanded",
		Help:      "Number of speculative expansions by outcome",
	}, []string{"outcome"})
)
