package web

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/interface/web/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	headerMerchantID         = "X-Merchant-Id"
	headerMerchantWallet     = "X-Merchant-Wallet"
	headerMerchantFeePercent = "X-Merchant-Fee-Percent"
	headerMerchantLabel      = "X-Merchant-Label"

	merchantKey = "merchant"
)

// requestLogger logs every request once it's been handled.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last().Err).Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

// merchantContext resolves the merchant from the headers set by the auth
// proxy in front of the service.
func merchantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerMerchantID))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.Error{Error: "missing merchant"})
			return
		}

		merchant := domain.Merchant{
			ID:            id,
			WalletAddress: strings.TrimSpace(c.GetHeader(headerMerchantWallet)),
			Label:         strings.TrimSpace(c.GetHeader(headerMerchantLabel)),
		}
		if raw := strings.TrimSpace(c.GetHeader(headerMerchantFeePercent)); raw != "" {
			fee, err := decimal.NewFromString(raw)
			if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
				c.AbortWithStatusJSON(http.StatusBadRequest, types.Error{Error: "invalid merchant fee percent"})
				return
			}
			merchant.FeePercent = &fee
		}

		c.Set(merchantKey, merchant)
		c.Next()
	}
}

// localOnly rejects every request not coming from a loopback address.
func localOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := net.ParseIP(c.ClientIP())
		if ip == nil || !ip.IsLoopback() {
			c.AbortWithStatusJSON(http.StatusForbidden, types.Error{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

func merchantFrom(c *gin.Context) domain.Merchant {
	v, _ := c.Get(merchantKey)
	merchant, _ := v.(domain.Merchant)
	return merchant
}
