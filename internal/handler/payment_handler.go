package handler

import (
	"net/http"

	"coursemart/internal/domain"
	"coursemart/internal/middleware"
	"coursemart/internal/repository"
	"coursemart/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc    *service.PaymentService
	txRepo *repository.TransactionRepository
}

func NewPaymentHandler(svc *service.PaymentService, txRepo *repository.TransactionRepository) *PaymentHandler {
	return &PaymentHandler{svc: svc, txRepo: txRepo}
}

type initializeRequest struct {
	CourseID uint `json:"course_id" binding:"required"`
}

// Initialize starts a purchase and returns the provider checkout URL.
func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.Validation("course_id is required"))
		return
	}
	res, err := h.svc.InitializePayment(c.Request.Context(), middleware.GetUserID(c), req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Verify is hit when the provider redirects the buyer back. The result drives the
// success/failure page, so a failed payment is a 200 with status FAILED.
func (h *PaymentHandler) Verify(c *gin.Context) {
	ref := c.Param("reference")
	tx, err := h.txRepo.GetByReference(ref)
	if err != nil {
		writeError(c, err)
		return
	}
	if tx.UserID != middleware.GetUserID(c) {
		writeError(c, domain.ErrTxNotFound)
		return
	}
	res, err := h.svc.Reconcile(c.Request.Context(), ref, domain.SourceVerify, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      res.Transaction.Status,
		"enrolled":    res.Enrolled,
		"transaction": res.Transaction,
	})
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.txRepo.ListByUser(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
