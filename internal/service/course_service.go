package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"coursemart/internal/cache"
	"coursemart/internal/domain"
	"coursemart/internal/models"
	"coursemart/internal/repository"
	"coursemart/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type CreateCourseInput struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Currency      string
}

// CourseService is the minimal catalog purchases depend on. Reads go through the Redis cache
// when one is configured.
type CourseService struct {
	repo  *repository.CourseRepository
	cache *cache.CourseCache
	media cloudinary.Client
	loads singleflight.Group
}

func NewCourseService(repo *repository.CourseRepository, courseCache *cache.CourseCache, media cloudinary.Client) *CourseService {
	return &CourseService{repo: repo, cache: courseCache, media: media}
}

func (s *CourseService) Create(instructorID uint, in CreateCourseInput) (*models.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Validation("title is required")
	}
	if !in.Price.IsPositive() {
		return nil, domain.Validation("price must be positive")
	}
	if in.DiscountPrice != nil && (in.DiscountPrice.IsNegative() || in.DiscountPrice.GreaterThanOrEqual(in.Price)) {
		return nil, domain.Validation("discount_price must be below price")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, domain.Validation("currency must be an ISO 4217 code")
	}
	c := &models.Course{
		InstructorID:  instructorID,
		Title:         title,
		Slug:          slugify(title) + "-" + uuid.NewString()[:8],
		Description:   in.Description,
		Price:         in.Price,
		DiscountPrice: in.DiscountPrice,
		Currency:      currency,
	}
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get is cache-aside; concurrent misses for one course share a single database read.
func (s *CourseService) Get(ctx context.Context, id uint) (*models.Course, error) {
	if c, ok := s.cache.Get(ctx, id); ok {
		return c, nil
	}
	v, err, _ := s.loads.Do(strconv.FormatUint(uint64(id), 10), func() (interface{}, error) {
		c, err := s.repo.GetByID(id)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Course), nil
}

func (s *CourseService) ListPublished(limit, offset int) ([]models.Course, error) {
	return s.repo.ListPublished(limit, offset)
}

// SetPublished is allowed for the course's instructor and for admins.
func (s *CourseService) SetPublished(ctx context.Context, actorID uint, role string, courseID uint, published bool) (*models.Course, error) {
	c, err := s.ownedCourse(actorID, role, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPublished(courseID, published); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, courseID)
	c.Published = published
	return c, nil
}

func (s *CourseService) UploadThumbnail(ctx context.Context, actorID uint, role string, courseID uint, file io.Reader) (*models.Course, error) {
	if s.media == nil {
		return nil, fmt.Errorf("thumbnail uploads: %w", domain.ErrNotAvailable)
	}
	c, err := s.ownedCourse(actorID, role, courseID)
	if err != nil {
		return nil, err
	}
	folder := "coursemart/courses/" + strconv.FormatUint(uint64(courseID), 10)
	publicID := "thumb_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	res, err := s.media.UploadImage(ctx, file, folder, publicID)
	if err != nil {
		log.Printf("[course] thumbnail upload course=%d: %v", courseID, err)
		return nil, err
	}
	if err := s.repo.SetThumbnail(courseID, res.ThumbnailURL); err != nil {
		if derr := s.media.Destroy(ctx, res.PublicID); derr != nil {
			log.Printf("[course] destroy orphaned thumbnail %s: %v", res.PublicID, derr)
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, courseID)
	c.ThumbnailURL = res.ThumbnailURL
	return c, nil
}

func (s *CourseService) ownedCourse(actorID uint, role string, courseID uint) (*models.Course, error) {
	c, err := s.repo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && c.InstructorID != actorID {
		return nil, domain.ErrCourseNotFound
	}
	return c, nil
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
