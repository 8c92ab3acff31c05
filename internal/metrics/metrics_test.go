package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(RowsIngested.WithLabelValues("csv"))

	RecordFetch("csv", 12, 5*time.Millisecond, nil)
	RecordFetch("csv", 99, time.Millisecond, errors.New("boom"))

	assert.Equal(t, before+12, testutil.ToFloat64(RowsIngested.WithLabelValues("csv")))
}

func TestRecordInvalid(t *testing.T) {
	before := testutil.ToFloat64(InvalidRows.WithLabelValues("timestamp"))

	RecordInvalid("timestamp", 3)
	RecordInvalid("timestamp", 0)

	assert.Equal(t, before+3, testutil.ToFloat64(InvalidRows.WithLabelValues("timestamp")))
}

func TestRecordAggregation(t *testing.T) {
	before := testutil.ToFloat64(BucketsProduced.WithLabelValues("month"))

	RecordAggregation("month", 4, time.Millisecond)

	assert.Equal(t, before+4, testutil.ToFloat64(BucketsProduced.WithLabelValues("month")))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequests.WithLabelValues("GET", "/api/v1/holidays", "200"))

	RecordAPIRequest("GET", "/api/v1/holidays", 200, 2*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(APIRequests.WithLabelValues("GET", "/api/v1/holidays", "200")))
}
