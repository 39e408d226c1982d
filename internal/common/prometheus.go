package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	WalletCallbackTotal        = "wallet_callbacks_total"
	LedgerTransactionTotal     = "ledger_transactions_total"
	JackpotDrawTotal           = "jackpot_draws_total"
	JackpotPrizeCreditedTotal  = "jackpot_prizes_credited_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		WalletCallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: WalletCallbackTotal,
			Help: "Count of wallet provider callbacks by action and result code",
		}, []string{"action", "result"}),
		LedgerTransactionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: LedgerTransactionTotal,
			Help: "Count of committed ledger transactions by type",
		}, []string{"type", "duplicate"}),
		JackpotDrawTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: JackpotDrawTotal,
			Help: "Count of jackpot draw executions by outcome",
		}, []string{"outcome"}),
		JackpotPrizeCreditedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: JackpotPrizeCreditedTotal,
			Help: "Count of jackpot prizes credited by tier",
		}, []string{"tier"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    HTTPRequestDurationSeconds,
			Help:    "Duration of all HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "code"}),
	}
)
