package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/application"
	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/interface/web/types"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const (
	healthTimeout = 2 * time.Second
	qrSize        = 256
)

func (s *service) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s.svc.LedgerHealth(ctx); err != nil {
		log.WithError(err).Warn("health check: ledger unreachable")
		c.String(http.StatusServiceUnavailable, "unhealthy")
		return
	}
	c.String(http.StatusOK, "ok")
}

func (s *service) createPayment(c *gin.Context) {
	var req types.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", errInvalidRequest, err))
		return
	}
	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", application.ErrInvalidAsset, err))
		return
	}

	descriptor, err := s.svc.CreatePaymentRequest(c.Request.Context(), application.CreatePaymentRequestInput{
		Merchant:        merchantFrom(c),
		RawAmount:       req.Amount,
		Asset:           asset,
		RecipientWallet: req.Wallet,
		Label:           req.Label,
		Message:         req.Message,
		Contact:         req.Contact,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.PaymentRequest{
		Reference: descriptor.Reference,
		URL:       descriptor.URL,
		Recipient: descriptor.Recipient,
		Amount:    descriptor.Amount.StringFixed(descriptor.Asset.Scale()),
		Asset:     descriptor.Asset.String(),
		SplToken:  descriptor.SPLToken,
		Label:     descriptor.Label,
	})
}

func (s *service) getPayment(c *gin.Context) {
	reference := c.Param("reference")

	status, err := s.svc.ConfirmPaymentRequest(c.Request.Context(), reference)
	if err != nil {
		var reconErr *application.ReconciliationError
		if errors.As(err, &reconErr) {
			log.WithError(err).WithField("reference", reference).Warn("payment check failed, still pending")
			c.JSON(http.StatusOK, types.PaymentStatus{
				Status: application.StatePending.String(),
				Retry:  true,
			})
			return
		}
		if !errors.Is(err, application.ErrReferenceNotFound) {
			abortWithError(c, err)
			return
		}
	}

	switch status.State {
	case application.StateNotFound:
		c.JSON(http.StatusNotFound, types.PaymentStatus{Status: status.State.String()})
	case application.StateConfirmed:
		c.JSON(http.StatusOK, types.PaymentStatus{
			Status: status.State.String(),
			TxID:   status.TxID,
			Amount: status.Amount.String(),
			Asset:  status.Asset.String(),
		})
	default:
		c.JSON(http.StatusOK, types.PaymentStatus{Status: status.State.String()})
	}
}

func (s *service) getPaymentQR(c *gin.Context) {
	req, ok := s.svc.GetPendingRequest(c.Param("reference"))
	if !ok {
		abortWithError(c, application.ErrReferenceNotFound)
		return
	}

	png, err := qrcode.Encode(req.Descriptor, qrcode.Medium, qrSize)
	if err != nil {
		abortWithError(c, fmt.Errorf("failed to render qr code: %w", err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *service) getHistory(c *gin.Context) {
	asset, err := assetQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, err := paginationQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	history, err := s.svc.ListHistory(c.Request.Context(), merchantFrom(c), asset, page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	payments := make([]types.Payment, 0, len(history.Rows))
	for _, p := range history.Rows {
		payments = append(payments, toPayment(p))
	}
	totals := make(map[string]types.AssetTotals, len(domain.Assets))
	for _, a := range domain.Assets {
		totals[a.String()] = types.AssetTotals{
			Gross:     history.GrossTotals[a].String(),
			Available: history.AvailableTotals[a].String(),
			Fees:      history.FeeTotals[a].String(),
		}
	}

	c.JSON(http.StatusOK, types.History{
		Payments: payments,
		Total:    history.Total,
		Page:     history.Page,
		PageSize: history.PageSize,
		Totals:   totals,
	})
}

func (s *service) exportHistory(c *gin.Context) {
	asset, err := assetQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	buf := &bytes.Buffer{}
	if err := s.svc.ExportHistory(c.Request.Context(), merchantFrom(c), asset, buf); err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="payments.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *service) createClaim(c *gin.Context) {
	var req types.CreateClaim
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", errInvalidRequest, err))
		return
	}
	asset, err := domain.ParseAsset(req.Asset)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", application.ErrInvalidAsset, err))
		return
	}

	claim, err := s.svc.RecordClaim(c.Request.Context(), merchantFrom(c), asset, req.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.Claim{
		ID:        claim.ID,
		Asset:     claim.Asset.String(),
		Amount:    claim.Amount.String(),
		CreatedAt: claim.CreatedAt.Format(time.RFC3339),
	})
}

func assetQuery(c *gin.Context) (*domain.Asset, error) {
	raw := c.Query("asset")
	if raw == "" {
		return nil, nil
	}
	asset, err := domain.ParseAsset(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", application.ErrInvalidAsset, err)
	}
	return &asset, nil
}

func paginationQuery(c *gin.Context) (domain.Pagination, error) {
	var page domain.Pagination
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, fmt.Errorf("%w: invalid page %q", errInvalidRequest, raw)
		}
		page.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, fmt.Errorf("%w: invalid page size %q", errInvalidRequest, raw)
		}
		page.PageSize = n
	}
	return page, nil
}

func toPayment(p domain.ConfirmedPayment) types.Payment {
	return types.Payment{
		TxID:      p.TxID,
		Reference: p.Reference,
		Asset:     p.Asset.String(),
		Amount:    p.ReceivedAmount.String(),
		Expected:  p.ExpectedAmount.String(),
		Payer:     p.PayerAddress,
		Fee:       p.NetworkFee.String(),
		Slot:      p.BlockSlot,
		Date:      p.DisplayDate,
		Hour:      p.DisplayTime,
		Status:    p.Status.String(),
		Label:     p.MerchantLabel,
		Network:   p.Network,
	}
}
