// Package health публикует состояние бота через стандартный gRPC health
// protocol: пробы хранилищ выполняются периодически, статус обновляется
// в grpc health.Server.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service: имя сервиса в health-протоколе.
const Service = "bbq.Bot"

type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type Checker struct {
	srv     *health.Server
	probes  []Probe
	log     *zap.Logger
	timeout time.Duration
}

func NewChecker(log *zap.Logger, probes ...Probe) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Checker{srv: srv, probes: probes, log: log, timeout: 3 * time.Second}
}

func (c *Checker) Server() *health.Server {
	return c.srv
}

// Probe выполняет все пробы и обновляет статус. true, если всё работает.
func (c *Checker) Probe(ctx context.Context) bool {
	ok := true
	for _, p := range c.probes {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := p.Check(pctx)
		cancel()
		if err != nil {
			c.log.Warn("health probe failed", zap.String("probe", p.Name), zap.Error(err))
			ok = false
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(Service, status)
	return ok
}

// Run проверяет пробы каждые interval до отмены ctx, затем
// переводит сервер в состояние остановки.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-ticker.C:
			c.Probe(ctx)
		}
	}
}
