package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the platform collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	depositsTotal      *prometheus.CounterVec
	withdrawalsTotal   *prometheus.CounterVec
	referralRepairs    *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	referralSyncLast   prometheus.Gauge
}

// New registers the collectors on reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		depositsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "invest_platform",
				Name:      "deposits_total",
				Help:      "Deposit lifecycle actions partitioned by action and result.",
			},
			[]string{"action", "result"},
		),
		withdrawalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "invest_platform",
				Name:      "withdrawals_total",
				Help:      "Withdrawal lifecycle actions partitioned by action and result.",
			},
			[]string{"action", "result"},
		),
		referralRepairs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "invest_platform",
				Name:      "referral_repairs_total",
				Help:      "Referral rows created or repaired, by kind.",
			},
			[]string{"kind"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "invest_platform",
				Name:      "notifications_total",
				Help:      "Notification deliveries by sink and result.",
			},
			[]string{"sink", "result"},
		),
		referralSyncLast: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "invest_platform",
				Name:      "referral_sync_last_run_unix",
				Help:      "Unix time of the most recent referral rebuild run.",
			},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveDeposit counts a deposit action
func (m *Metrics) ObserveDeposit(action string, err error) {
	if m == nil {
		return
	}
	m.depositsTotal.WithLabelValues(action, result(err)).Inc()
}

// ObserveWithdrawal counts a withdrawal action
func (m *Metrics) ObserveWithdrawal(action string, err error) {
	if m == nil {
		return
	}
	m.withdrawalsTotal.WithLabelValues(action, result(err)).Inc()
}

// ObserveReferralRepair counts a created or repaired referral row
func (m *Metrics) ObserveReferralRepair(kind string) {
	if m == nil {
		return
	}
	m.referralRepairs.WithLabelValues(kind).Inc()
}

// ObserveNotification counts a delivery attempt to sink
func (m *Metrics) ObserveNotification(sink string, err error) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(sink, result(err)).Inc()
}

// ObserveReferralSync records the completion time of a rebuild run
func (m *Metrics) ObserveReferralSync(at time.Time) {
	if m == nil {
		return
	}
	m.referralSyncLast.Set(float64(at.UTC().Unix()))
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
