package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type pipelineMetrics struct {
	transactions *prometheus.CounterVec
	blocks       *prometheus.CounterVec
	applyLatency *prometheus.HistogramVec
	undoDepth    prometheus.Gauge
}

var (
	pipelineMetricsOnce sync.Once
	pipelineRegistry    *pipelineMetrics

	witnessMetricsOnce sync.Once
	witnessRegistry    *witnessMetrics

	proposalMetricsOnce sync.Once
	proposalRegistry    *proposalMetrics

	consensusMetricsOnce sync.Once
	consensusRegistry    *consensusMetrics
)

// Pipeline returns the lazily-initialised metrics registry for the
// transaction/block application pipeline.
func Pipeline() *pipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineRegistry = &pipelineMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "pipeline",
				Name:      "transactions_total",
				Help:      "Total transactions pushed through the pipeline segmented by outcome.",
			}, []string{"outcome"}),
			blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "pipeline",
				Name:      "blocks_total",
				Help:      "Total blocks pushed through the pipeline segmented by outcome.",
			}, []string{"outcome"}),
			applyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "deip",
				Subsystem: "pipeline",
				Name:      "apply_duration_seconds",
				Help:      "Latency distribution for applying a unit of work through the pipeline.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"unit"}),
			undoDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "deip",
				Subsystem: "pipeline",
				Name:      "undo_session_depth",
				Help:      "Current nesting depth of open chainbase undo sessions.",
			}),
		}
		prometheus.MustRegister(
			pipelineRegistry.transactions,
			pipelineRegistry.blocks,
			pipelineRegistry.applyLatency,
			pipelineRegistry.undoDepth,
		)
	})
	return pipelineRegistry
}

// RecordTransaction records the outcome of a push_transaction call.
func (m *pipelineMetrics) RecordTransaction(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.applyLatency.WithLabelValues("transaction").Observe(d.Seconds())
}

// RecordBlock records the outcome of a push_block call.
func (m *pipelineMetrics) RecordBlock(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.applyLatency.WithLabelValues("block").Observe(d.Seconds())
}

// SetUndoDepth reports the current undo session nesting depth.
func (m *pipelineMetrics) SetUndoDepth(depth int) {
	if m == nil {
		return
	}
	m.undoDepth.Set(float64(depth))
}

// witnessMetrics tracks witness schedule participation.
type witnessMetrics struct {
	producedBlocks *prometheus.CounterVec
	missedSlots    *prometheus.CounterVec
	voteWeight     *prometheus.GaugeVec
}

// Witness returns the lazily-initialised witness participation metrics registry.
func Witness() *witnessMetrics {
	witnessMetricsOnce.Do(func() {
		witnessRegistry = &witnessMetrics{
			producedBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "witness",
				Name:      "produced_blocks_total",
				Help:      "Count of blocks produced per witness.",
			}, []string{"witness"}),
			missedSlots: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "witness",
				Name:      "missed_slots_total",
				Help:      "Count of scheduled slots a witness failed to produce for.",
			}, []string{"witness"}),
			voteWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "deip",
				Subsystem: "witness",
				Name:      "vote_weight",
				Help:      "Current vote weight backing a witness candidate.",
			}, []string{"witness"}),
		}
		prometheus.MustRegister(
			witnessRegistry.producedBlocks,
			witnessRegistry.missedSlots,
			witnessRegistry.voteWeight,
		)
	})
	return witnessRegistry
}

// RecordProduced increments the produced-block counter for a witness.
func (m *witnessMetrics) RecordProduced(witness string) {
	if m == nil {
		return
	}
	m.producedBlocks.WithLabelValues(normalizeLabel(witness)).Inc()
}

// RecordMissed increments the missed-slot counter for a witness.
func (m *witnessMetrics) RecordMissed(witness string) {
	if m == nil {
		return
	}
	m.missedSlots.WithLabelValues(normalizeLabel(witness)).Inc()
}

// SetVoteWeight reports a witness's current backing vote weight.
func (m *witnessMetrics) SetVoteWeight(witness string, weight int64) {
	if m == nil {
		return
	}
	m.voteWeight.WithLabelValues(normalizeLabel(witness)).Set(float64(weight))
}

// proposalMetrics tracks the proposal lifecycle.
type proposalMetrics struct {
	created  prometheus.Counter
	executed prometheus.Counter
	expired  prometheus.Counter
	active   prometheus.Gauge
}

// Proposal returns the lazily-initialised proposal lifecycle metrics registry.
func Proposal() *proposalMetrics {
	proposalMetricsOnce.Do(func() {
		proposalRegistry = &proposalMetrics{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "proposal",
				Name:      "created_total",
				Help:      "Total proposals created.",
			}),
			executed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "proposal",
				Name:      "executed_total",
				Help:      "Total proposals executed after reaching quorum.",
			}),
			expired: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deip",
				Subsystem: "proposal",
				Name:      "expired_total",
				Help:      "Total proposals dropped for expiring before quorum.",
			}),
			active: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "deip",
				Subsystem: "proposal",
				Name:      "active",
				Help:      "Count of proposals currently awaiting quorum.",
			}),
		}
		prometheus.MustRegister(
			proposalRegistry.created,
			proposalRegistry.executed,
			proposalRegistry.expired,
			proposalRegistry.active,
		)
	})
	return proposalRegistry
}

// RecordCreated increments the proposal-created counter.
func (m *proposalMetrics) RecordCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
	m.active.Inc()
}

// RecordExecuted increments the proposal-executed counter.
func (m *proposalMetrics) RecordExecuted() {
	if m == nil {
		return
	}
	m.executed.Inc()
	m.active.Dec()
}

// RecordExpired increments the proposal-expired counter.
func (m *proposalMetrics) RecordExpired() {
	if m == nil {
		return
	}
	m.expired.Inc()
	m.active.Dec()
}

type consensusMetrics struct {
	blockInterval         prometheus.Gauge
	lastIrreversibleBlock prometheus.Gauge
	irreversibilityBehind prometheus.Gauge
}

// Consensus exposes the metrics registry for consensus level instrumentation.
func Consensus() *consensusMetrics {
	consensusMetricsOnce.Do(func() {
		consensusRegistry = &consensusMetrics{
			blockInterval: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "deip",
				Subsystem: "consensus",
				Name:      "block_interval_seconds",
				Help:      "Interval in seconds between the timestamps of consecutive committed blocks.",
			}),
			lastIrreversibleBlock: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "deip",
				Subsystem: "consensus",
				Name:      "last_irreversible_block",
				Help:      "Block number of the last irreversible block.",
			}),
			irreversibilityBehind: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "deip",
				Subsystem: "consensus",
				Name:      "irreversibility_lag_blocks",
				Help:      "Difference between head block number and last irreversible block number.",
			}),
		}
		prometheus.MustRegister(
			consensusRegistry.blockInterval,
			consensusRegistry.lastIrreversibleBlock,
			consensusRegistry.irreversibilityBehind,
		)
	})
	return consensusRegistry
}

// RecordBlockInterval updates the block interval gauge with the supplied duration.
func (m *consensusMetrics) RecordBlockInterval(interval time.Duration) {
	if m == nil {
		return
	}
	seconds := interval.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.blockInterval.Set(seconds)
}

// RecordIrreversibility updates the last-irreversible-block gauges.
func (m *consensusMetrics) RecordIrreversibility(headBlockNum, lastIrreversible uint64) {
	if m == nil {
		return
	}
	m.lastIrreversibleBlock.Set(float64(lastIrreversible))
	if headBlockNum >= lastIrreversible {
		m.irreversibilityBehind.Set(float64(headBlockNum - lastIrreversible))
	}
}

func normalizeLabel(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
