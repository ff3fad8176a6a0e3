package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Upload("ready")
	m.Upload("ready")
	m.Upload("error")
	m.Ask("answered")
	m.ClassifierDecision(false)
	m.ClassifierFailure()
	m.SessionsActive(3)
	m.SessionsExpired(2)

	if got := testutil.ToFloat64(m.uploads.WithLabelValues("ready")); got != 2 {
		t.Fatalf("ready uploads = %v", got)
	}
	if got := testutil.ToFloat64(m.classifierDecision.WithLabelValues("false")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("active sessions = %v", got)
	}
	if got := testutil.ToFloat64(m.expiredSessions); got != 2 {
		t.Fatalf("expired sessions = %v", got)
	}
	if n, err := testutil.GatherAndCount(m.Registry(), "careerqa_uploads_total"); err != nil || n != 2 {
		t.Fatalf("gather uploads: n=%d err=%v", n, err)
	}
}
