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

package ingestion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the analysis pipeline.
type metricsIngestion struct {
	once sync.Once

	filesAnalyzed *prometheus.CounterVec
	filesFailed   prometheus.Counter
	filesDropped  prometheus.Counter
	described     prometheus.Counter

	analyzeDuration *prometheus.HistogramVec
	runDuration     prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.filesAnalyzed = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repofacts_files_analyzed_total", Help: "Files converted to LADOM by language and extraction strategy"}, []string{"language", "extraction"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "repofacts_files_failed_total", Help: "Files that could not be read"})
		m.filesDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "repofacts_files_dropped_total", Help: "Files dropped because no strategy recovered anything"})
		m.described = prometheus.NewCounter(prometheus.CounterOpts{Name: "repofacts_symbols_described_total", Help: "Symbols that received a generated description"})

		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.analyzeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "repofacts_analyze_seconds", Help: "Per-file analysis duration", Buckets: buckets}, []string{"language"})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repofacts_run_seconds", Help: "Total pipeline run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesAnalyzed, m.filesFailed, m.filesDropped, m.described,
			m.analyzeDuration, m.runDuration,
		)
	})
}

func recordAnalyzed(language, extraction string, d time.Duration) {
	ingMetrics.init()
	ingMetrics.filesAnalyzed.WithLabelValues(language, extraction).Inc()
	ingMetrics.analyzeDuration.WithLabelValues(language).Observe(d.Seconds())
}

func recordFailed() { ingMetrics.init(); ingMetrics.filesFailed.Inc() }
func recordDropped() { ingMetrics.init(); ingMetrics.filesDropped.Inc() }
func recordDescribed(n int) { ingMetrics.init(); ingMetrics.described.Add(float64(n)) }
func recordRun(d time.Duration) { ingMetrics.init(); ingMetrics.runDuration.Observe(d.Seconds()) }
