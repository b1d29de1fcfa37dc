package handler

import (
	"net/http"

	"coursemart/internal/middleware"
	"coursemart/internal/repository"
	"coursemart/internal/service"

	"github.com/gin-gonic/gin"
)

type WishlistHandler struct {
	repo    *repository.WishlistRepository
	courses *service.CourseService
}

func NewWishlistHandler(repo *repository.WishlistRepository, courses *service.CourseService) *WishlistHandler {
	return &WishlistHandler{repo: repo, courses: courses}
}

func (h *WishlistHandler) Add(c *gin.Context) {
	userID := middleware.GetUserID(c)
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.courses.Get(c.Request.Context(), courseID); err != nil {
		writeError(c, err)
		return
	}
	present, err := h.repo.Contains(userID, courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	if present {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := h.repo.Add(userID, courseID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (h *WishlistHandler) Remove(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.RemoveEntry(middleware.GetUserID(c), courseID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WishlistHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.repo.ListByUser(middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": list})
}
