package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec := serve(t, NewHealthHandler(nil).Liveness, request{method: http.MethodGet, target: "/health"})
	expectStatus(t, rec, http.StatusOK)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := serve(t, NewHealthHandler(map[string]HealthCheck{"mongodb": ok, "redis": ok}).Readiness,
		request{method: http.MethodGet, target: "/health/ready"})
	expectStatus(t, rec, http.StatusOK)

	rec = serve(t, NewHealthHandler(map[string]HealthCheck{"mongodb": ok, "redis": down}).Readiness,
		request{method: http.MethodGet, target: "/health/ready"})
	expectStatus(t, rec, http.StatusServiceUnavailable)

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}
