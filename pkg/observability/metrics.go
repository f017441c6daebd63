package observability

import (
	"context"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hearth"

// Metrics holds the assistant collectors.
type Metrics struct {
	Steps          *prometheus.CounterVec
	Messages       *prometheus.CounterVec
	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	Tickets        *prometheus.CounterVec
	SubmitDuration prometheus.Histogram
	Navigations    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_transitions_total",
				Help:      "Total number of dialog step transitions",
			},
			[]string{"from", "to"},
		),
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Total number of log entries appended",
			},
			[]string{"role"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of settled property searches",
			},
			[]string{"outcome"},
		),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of property searches",
			Buckets:   prometheus.DefBuckets,
		}),
		Tickets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tickets_total",
				Help:      "Total number of support ticket submissions",
			},
			[]string{"result"},
		),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Duration of support ticket submissions",
			Buckets:   prometheus.DefBuckets,
		}),
		Navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigations_total",
				Help:      "Total number of navigations handed to the host",
			},
			[]string{"route"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.Steps, m.Messages, m.Searches, m.SearchDuration, m.Tickets, m.SubmitDuration, m.Navigations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TrackSessions exports the number of live conversations reported by count.
func (m *Metrics) TrackSessions(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Number of live conversations",
		},
		func() float64 { return float64(count()) },
	))
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues(string(e.Message.Role)).Inc()
		},
		OnSearch: func(_ context.Context, e *domain.SearchEvent) {
			m.Searches.WithLabelValues(e.Outcome).Inc()
			if e.Cancelled() {
				return
			}
			m.SearchDuration.Observe(e.Duration.Seconds())
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Tickets.WithLabelValues(result).Inc()
			m.SubmitDuration.Observe(e.Duration.Seconds())
		},
		OnNavigate: func(_ context.Context, e *domain.NavigateEvent) {
			m.Navigations.WithLabelValues(e.Target.Route).Inc()
		},
	}
}
