package handler

import (
	"net/http"

	"coursemart/internal/middleware"
	"coursemart/internal/repository"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo       *repository.UserRepository
	enrollmentRepo *repository.EnrollmentRepository
}

func NewMeHandler(userRepo *repository.UserRepository, enrollmentRepo *repository.EnrollmentRepository) *MeHandler {
	return &MeHandler{userRepo: userRepo, enrollmentRepo: enrollmentRepo}
}

func (h *MeHandler) Profile(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Enrollments lists every enrollment of the caller, refunded ones included.
func (h *MeHandler) Enrollments(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.enrollmentRepo.ListByUser(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": list})
}
