package handler

import (
	"net/http"
	"time"

	"coursemart/internal/service"

	"github.com/gin-gonic/gin"
)

type CronHandler struct {
	payments   *service.PaymentService
	pendingTTL time.Duration
}

func NewCronHandler(payments *service.PaymentService, pendingTTL time.Duration) *CronHandler {
	return &CronHandler{payments: payments, pendingTTL: pendingTTL}
}

// Sweep settles PENDING transactions older than the configured TTL.
func (h *CronHandler) Sweep(c *gin.Context) {
	res, err := h.payments.Sweep(c.Request.Context(), h.pendingTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
