package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Metrics names.
	MetricNameBuildInfo       = "brick_escrow_keeper_build_info"
	MetricNameErrors          = "brick_escrow_keeper_errors_total"
	MetricNameWithdrawals     = "brick_escrow_keeper_withdrawals_total"
	MetricNameWithdrawnAmount = "brick_escrow_keeper_withdrawn_amount_total"
	MetricNameDuePayments     = "brick_escrow_keeper_due_payments"
	MetricNamePendingPayments = "brick_escrow_keeper_pending_payments"

	// Labels.
	LabelVersion   = "version"
	LabelCommit    = "commit"
	LabelDate      = "date"
	LabelErrorType = "error_type"
	LabelMint      = "mint"

	// Error types.
	ErrorTypeListPayments   = "list_payments"
	ErrorTypeGetMarketplace = "get_marketplace"
	ErrorTypeWithdrawFunds  = "withdraw_funds"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameBuildInfo,
			Help: "Build information of the escrow keeper",
		},
		[]string{LabelVersion, LabelCommit, LabelDate},
	)

	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameErrors,
			Help: "Number of errors encountered",
		},
		[]string{LabelErrorType},
	)

	Withdrawals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameWithdrawals,
			Help: "Number of escrowed payments released to the seller",
		},
	)

	WithdrawnAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWithdrawnAmount,
			Help: "Escrowed amount released, in base units of the payment mint",
		},
		[]string{LabelMint},
	)

	DuePayments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameDuePayments,
			Help: "Payments past their refund window at the last sweep",
		},
	)

	PendingPayments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNamePendingPayments,
			Help: "Payments still inside their refund window at the last sweep",
		},
	)
)
