package handler

import (
	"net/http"

	"coursemart/internal/domain"
	"coursemart/internal/middleware"
	"coursemart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CourseHandler struct {
	svc *service.CourseService
}

func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{svc: svc}
}

type createCourseRequest struct {
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Currency      string           `json:"currency"`
}

func (h *CourseHandler) Create(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.Validation(err.Error()))
		return
	}
	course, err := h.svc.Create(middleware.GetUserID(c), service.CreateCourseInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Currency:      req.Currency,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	course, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.svc.ListPublished(limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

func (h *CourseHandler) Publish(c *gin.Context)   { h.setPublished(c, true) }
func (h *CourseHandler) Unpublish(c *gin.Context) { h.setPublished(c, false) }

func (h *CourseHandler) setPublished(c *gin.Context, published bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	course, err := h.svc.SetPublished(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), id, published)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// UploadThumbnail takes a multipart "file" field and stores it as the course thumbnail.
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	course, err := h.svc.UploadThumbnail(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c), id, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}
