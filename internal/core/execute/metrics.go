// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package execute

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "keyauth",
	Subsystem: "executor",
	Name:      "outcomes",
	Help:      "Number of handled transactions by authorization status",
}, []string{"status"})
