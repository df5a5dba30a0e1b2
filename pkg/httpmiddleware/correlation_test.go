package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

func TestCorrelationIDGeneratesFreshID(t *testing.T) {
	var headerID, contextID string

	handler := CorrelationID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerID = r.Header.Get("X-Correlation-ID")
		contextID = logger.GetCorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/advice", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if headerID == "" {
		t.Fatal("expected a correlation ID in the request header")
	}
	if _, err := uuid.Parse(headerID); err != nil {
		t.Fatalf("correlation ID %q is not a UUID: %v", headerID, err)
	}
	if contextID != headerID {
		t.Errorf("context ID %q does not match header ID %q", contextID, headerID)
	}
}

func TestCorrelationIDIgnoresClientValue(t *testing.T) {
	var seen string

	handler := CorrelationID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Correlation-ID")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/advice", nil)
	req.Header.Set("X-Correlation-ID", "client-supplied-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "client-supplied-id" {
		t.Error("client supplied correlation ID must be replaced")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("replacement ID %q is not a UUID: %v", seen, err)
	}
}

func TestCorrelationIDUniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)

	handler := CorrelationID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[r.Header.Get("X-Correlation-ID")] = true
	}))

	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	if len(ids) != 5 {
		t.Errorf("expected 5 distinct correlation IDs, got %d", len(ids))
	}
}
