package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/test", "201"))
	RecordAPIRequest("POST", "/test", 201, 50*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/test", "201")))
}

func TestRecordGeneration(t *testing.T) {
	before := testutil.ToFloat64(GenerationsTotal.WithLabelValues("SATISFIED"))
	RecordGeneration("SATISFIED", 2, time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(GenerationsTotal.WithLabelValues("SATISFIED")))
}

func TestRecordUpstreamCall(t *testing.T) {
	RecordUpstreamCall("spoonacular", nil, time.Millisecond)
	RecordUpstreamCall("spoonacular", errors.New("boom"), time.Millisecond)
	assert.Equal(t, 2, testutil.CollectAndCount(UpstreamCallDuration, "upstream_call_duration_seconds"))
}
