package handlers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckTimeout = 2 * time.Second

type LedgerChecker interface {
	LedgerHealth(ctx context.Context) error
}

type healthHandler struct {
	svc LedgerChecker
}

func NewHealthHandler(svc LedgerChecker) grpchealth.HealthServer {
	return &healthHandler{svc: svc}
}

func (h *healthHandler) Check(
	ctx context.Context,
	_ *grpchealth.HealthCheckRequest,
) (*grpchealth.HealthCheckResponse, error) {
	if h.svc == nil {
		log.Debug("health check: service not ready")
		return &grpchealth.HealthCheckResponse{
			Status: grpchealth.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	// The ledger rpc must answer within a short timeout.
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.svc.LedgerHealth(checkCtx); err != nil {
		log.WithError(err).Warn("health check: failed to reach ledger rpc")
		return &grpchealth.HealthCheckResponse{
			Status: grpchealth.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &grpchealth.HealthCheckResponse{
		Status: grpchealth.HealthCheckResponse_SERVING,
	}, nil
}

func (h *healthHandler) Watch(
	_ *grpchealth.HealthCheckRequest,
	_ grpchealth.Health_WatchServer,
) error {
	return nil
}
