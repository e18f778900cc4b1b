package health

import (
	"context"
	"errors"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func status(t *testing.T, c *Checker, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestChecker_Probe(t *testing.T) {
	var dbErr error
	c := NewChecker(nil,
		Probe{Name: "db", Check: func(context.Context) error { return dbErr }},
		Probe{Name: "redis", Check: func(context.Context) error { return nil }},
	)

	if got := status(t, c, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %s", got)
	}

	if !c.Probe(context.Background()) {
		t.Fatalf("healthy probes reported failure")
	}
	if got := status(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %s, want SERVING", got)
	}

	dbErr = errors.New("database is locked")
	if c.Probe(context.Background()) {
		t.Fatalf("failing probe reported success")
	}
	if got := status(t, c, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %s, want NOT_SERVING", got)
	}
}
