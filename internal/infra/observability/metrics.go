package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	opDuration        *prometheus.HistogramVec
	transactionsTotal *prometheus.CounterVec
	conversionsTotal  prometheus.Counter
	cashbackPaid      *prometheus.CounterVec
	vouchersIssued    prometheus.Counter
	splitsTotal       *prometheus.CounterVec
	planUpgrades      *prometheus.CounterVec
}

// EngineStats is the aggregate counter snapshot served on /v1/stats.
type EngineStats struct {
	TransactionsCommitted float64 `json:"transactions_committed"`
	TransactionsFailed    float64 `json:"transactions_failed"`
	SplitsCommitted       float64 `json:"splits_committed"`
	SplitsAborted         float64 `json:"splits_aborted"`
	CashbackCountBased    float64 `json:"cashback_count_based"`
	CashbackThreshold     float64 `json:"cashback_threshold"`
	Conversions           float64 `json:"conversions"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// engine metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		opDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebank_operation_duration_seconds",
				Help:    "Duration of engine operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_transactions_total",
				Help: "Total ledger transactions recorded, by outcome.",
			},
			[]string{"outcome"},
		),
		conversionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "corebank_currency_conversions_total",
				Help: "Total currency conversions performed.",
			},
		),
		cashbackPaid: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_cashback_paid_total",
				Help: "Total cashback credited, by strategy.",
			},
			[]string{"strategy"},
		),
		vouchersIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "corebank_vouchers_issued_total",
				Help: "Total count-based cashback vouchers issued.",
			},
		),
		splitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_split_payments_total",
				Help: "Total split payments resolved, by outcome.",
			},
			[]string{"outcome"},
		),
		planUpgrades: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_plan_upgrades_total",
				Help: "Total service plan upgrades, by target tier.",
			},
			[]string{"plan"},
		),
	}
}

// RecordOpDuration records the duration of an engine operation.
func (m *Metrics) RecordOpDuration(operation string, d time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrTransaction counts a recorded transaction by outcome
// ("committed" or "failed").
func (m *Metrics) IncrTransaction(outcome string) {
	m.transactionsTotal.WithLabelValues(outcome).Inc()
}

// IncrConversion counts one currency conversion.
func (m *Metrics) IncrConversion() {
	m.conversionsTotal.Inc()
}

// AddCashback accumulates cashback credited by a strategy.
func (m *Metrics) AddCashback(strategy string, amount float64) {
	m.cashbackPaid.WithLabelValues(strategy).Add(amount)
}

// IncrVoucher counts one issued voucher.
func (m *Metrics) IncrVoucher() {
	m.vouchersIssued.Inc()
}

// IncrSplit counts a resolved split payment by outcome
// ("committed" or "aborted").
func (m *Metrics) IncrSplit(outcome string) {
	m.splitsTotal.WithLabelValues(outcome).Inc()
}

// IncrPlanUpgrade counts a plan upgrade to the given tier.
func (m *Metrics) IncrPlanUpgrade(plan string) {
	m.planUpgrades.WithLabelValues(plan).Inc()
}

// Snapshot gathers current counter values for the stats endpoint.
// Prometheus counters expose cumulative values.
func (m *Metrics) Snapshot() *EngineStats {
	return &EngineStats{
		TransactionsCommitted: getCounterValue(m.transactionsTotal, "committed"),
		TransactionsFailed:    getCounterValue(m.transactionsTotal, "failed"),
		SplitsCommitted:       getCounterValue(m.splitsTotal, "committed"),
		SplitsAborted:         getCounterValue(m.splitsTotal, "aborted"),
		CashbackCountBased:    getCounterValue(m.cashbackPaid, "count_based"),
		CashbackThreshold:     getCounterValue(m.cashbackPaid, "threshold"),
		Conversions:           readCounter(m.conversionsTotal),
	}
}

func readCounter(c prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil && metric.Counter.Value != nil {
		return *metric.Counter.Value
	}
	return 0
}
