package web

import (
	"context"
	"io"
	"net/http"

	"github.com/ArkLabsHQ/paylink/internal/core/application"
	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/gin-gonic/gin"
)

// PaymentService is the part of the application service exposed over http.
type PaymentService interface {
	CreatePaymentRequest(
		ctx context.Context, in application.CreatePaymentRequestInput,
	) (*ports.Descriptor, error)
	GetPendingRequest(reference string) (*domain.PendingPaymentRequest, bool)
	ConfirmPaymentRequest(ctx context.Context, reference string) (*application.PaymentStatus, error)
	ListHistory(
		ctx context.Context, merchant domain.Merchant, asset *domain.Asset, page domain.Pagination,
	) (*application.History, error)
	ExportHistory(
		ctx context.Context, merchant domain.Merchant, asset *domain.Asset, w io.Writer,
	) error
	RecordClaim(
		ctx context.Context, merchant domain.Merchant, asset domain.Asset, rawAmount string,
	) (*domain.Claim, error)
	LedgerHealth(ctx context.Context) error
}

type service struct {
	svc PaymentService
}

func NewService(svc PaymentService) http.Handler {
	s := &service{svc}

	router := gin.New()
	// Client ip always comes from the socket, claims are loopback only.
	_ = router.SetTrustedProxies(nil)
	router.Use(requestLogger(), gin.Recovery())

	router.GET("/healthz", s.healthz)

	v1 := router.Group("/v1")
	// Paying customers poll without merchant context.
	v1.GET("/payments/:reference", s.getPayment)
	v1.GET("/payments/:reference/qr", s.getPaymentQR)

	merchant := v1.Group("", merchantContext())
	merchant.POST("/payments", s.createPayment)
	merchant.GET("/history", s.getHistory)
	merchant.GET("/history/export", s.exportHistory)

	admin := v1.Group("", localOnly(), merchantContext())
	admin.POST("/claims", s.createClaim)

	return router
}
