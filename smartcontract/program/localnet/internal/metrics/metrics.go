package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Metrics names.
	MetricNameTransactions  = "brick_localnet_transactions_total"
	MetricNameInstructions  = "brick_localnet_instructions_total"
	MetricNameFeeLamports = "brick_localnet_fee_lamports_total"
	MetricNameSlot          = "brick_localnet_slot"

	// Labels.
	LabelResult      = "result"
	LabelInstruction = "instruction"
	LabelError       = "error"

	// Transaction results.
	ResultCommitted        = "committed"
	ResultFailed           = "failed"
	ResultSimulationFailed = "simulation_failed"
	ResultRejected         = "rejected"
)

var (
	Transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTransactions,
			Help: "Number of transactions submitted to the localnet by result",
		},
		[]string{LabelResult},
	)

	Instructions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameInstructions,
			Help: "Number of program instructions executed by name and error",
		},
		[]string{LabelInstruction, LabelError},
	)

	FeeLamports = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameFeeLamports,
			Help: "Signature fees charged by the localnet in lamports",
		},
	)

	Slot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameSlot,
			Help: "Current localnet slot",
		},
	)
)
