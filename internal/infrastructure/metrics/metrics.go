package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the domain counters. A nil *Recorder records nothing.
type Recorder struct {
	loansOpened     *prometheus.CounterVec
	loansClosed     prometheus.Counter
	loanRequests    *prometheus.CounterVec
	storeOperations *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
}

// NewRecorder creates the domain counters and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		loansOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameloans_loans_opened_total",
				Help: "Total number of loans opened",
			},
			[]string{"source"},
		),
		loansClosed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gameloans_loans_closed_total",
				Help: "Total number of loans closed",
			},
		),
		loanRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameloans_loan_requests_total",
				Help: "Loan request transitions by outcome",
			},
			[]string{"outcome"},
		),
		storeOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameloans_store_operations_total",
				Help: "Collection load/save operations by result",
			},
			[]string{"collection", "op", "result"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gameloans_store_operation_duration_seconds",
				Help:    "Collection load/save duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),
	}

	if reg != nil {
		reg.MustRegister(r.loansOpened, r.loansClosed, r.loanRequests, r.storeOperations, r.storeDuration)
	}

	return r
}

// Loan sources
const (
	SourceRequest = "request"
	SourceDirect  = "direct"
)

// Request outcomes
const (
	OutcomeSubmitted = "submitted"
	OutcomeApproved  = "approved"
	OutcomeRejected  = "rejected"
)

func (r *Recorder) LoanOpened(source string) {
	if r == nil {
		return
	}
	r.loansOpened.WithLabelValues(source).Inc()
}

func (r *Recorder) LoanClosed() {
	if r == nil {
		return
	}
	r.loansClosed.Inc()
}

func (r *Recorder) LoanRequest(outcome string) {
	if r == nil {
		return
	}
	r.loanRequests.WithLabelValues(outcome).Inc()
}

// StoreOperation records one collection load or save.
func (r *Recorder) StoreOperation(collection, op string, started time.Time, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.storeOperations.WithLabelValues(collection, op, result).Inc()
	r.storeDuration.WithLabelValues(collection, op).Observe(time.Since(started).Seconds())
}
