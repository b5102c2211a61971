package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Recorder_CountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.LoanOpened(SourceRequest)
	r.LoanOpened(SourceDirect)
	r.LoanOpened(SourceDirect)
	r.LoanClosed()
	r.LoanRequest(OutcomeSubmitted)
	r.StoreOperation("games", "save", time.Now(), nil)
	r.StoreOperation("games", "save", time.Now(), errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.loansOpened.WithLabelValues(SourceRequest)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.loansOpened.WithLabelValues(SourceDirect)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loansClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loanRequests.WithLabelValues(OutcomeSubmitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeOperations.WithLabelValues("games", "save", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeOperations.WithLabelValues("games", "save", "error")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func Test_Recorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.LoanOpened(SourceDirect)
		r.LoanClosed()
		r.LoanRequest(OutcomeApproved)
		r.StoreOperation("loans", "load", time.Now(), nil)
	})
}
