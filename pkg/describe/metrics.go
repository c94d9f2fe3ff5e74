// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package describe

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsDescribe struct {
	once     sync.Once
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

var descMetrics metricsDescribe

func (m *metricsDescribe) init() {
	m.once.Do(func() {
		m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repofacts_describe_requests_total",
			Help: "Description requests by result (hit, miss, error, fallback)",
		}, []string{"result"})
		m.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "repofacts_describe_generate_seconds",
			Help:    "Time spent waiting on the generator",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		})
		prometheus.MustRegister(m.requests, m.latency)
	})
}

func recordRequest(result string) {
	descMetrics.init()
	descMetrics.requests.WithLabelValues(result).Inc()
}

func observeGenerate(seconds float64) {
	descMetrics.init()
	descMetrics.latency.Observe(seconds)
}
