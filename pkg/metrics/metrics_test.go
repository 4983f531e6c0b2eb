package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Event("message")
	m.Event("message")
	m.Event("choice")
	m.Transition("awaiting_tag")
	m.StoreError("create_item")
	m.Sent("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("choice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("awaiting_tag")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("create_item")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outbound.WithLabelValues("ok")))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Event("message")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Events.WithLabelValues("message")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.StoreError("list_tags")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `readlater_store_errors_total{op="list_tags"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
