package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"coursemart/internal/domain"
	"coursemart/internal/repository"
	"coursemart/internal/testutil"
	"coursemart/pkg/cloudinary"

	"github.com/shopspring/decimal"
)

type fakeMedia struct {
	uploaded  []string
	destroyed []string
	err       error
}

func (m *fakeMedia) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*cloudinary.UploadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(file)
	m.uploaded = append(m.uploaded, folder+"/"+publicID+":"+string(body))
	return &cloudinary.UploadResult{
		URL:          "https://res.cloudinary.test/" + publicID,
		ThumbnailURL: "https://res.cloudinary.test/w_640/" + publicID,
		PublicID:     folder + "/" + publicID,
	}, nil
}

func (m *fakeMedia) Destroy(ctx context.Context, publicID string) error {
	m.destroyed = append(m.destroyed, publicID)
	return nil
}

func TestCourseService_CreateValidates(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCourseService(repository.NewCourseRepository(db), nil, nil)
	instructor := testutil.SeedUser(t, db, domain.RoleInstructor)

	discount := decimal.NewFromInt(6000)
	bad := []CreateCourseInput{
		{Title: "", Price: decimal.NewFromInt(10)},
		{Title: "Go", Price: decimal.Zero},
		{Title: "Go", Price: decimal.NewFromInt(5000), DiscountPrice: &discount},
		{Title: "Go", Price: decimal.NewFromInt(5000), Currency: "NAIRA"},
	}
	for i, in := range bad {
		if _, err := svc.Create(instructor.ID, in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}

	c, err := svc.Create(instructor.ID, CreateCourseInput{Title: "Practical Go: Services!", Price: decimal.NewFromInt(5000)})
	if err != nil {
		t.Fatal(err)
	}
	if c.Published || c.Currency != "NGN" || !strings.HasPrefix(c.Slug, "practical-go-services-") {
		t.Fatalf("unexpected course %+v", c)
	}
}

func TestCourseService_PublishRequiresOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCourseService(repository.NewCourseRepository(db), nil, nil)
	owner := testutil.SeedUser(t, db, domain.RoleInstructor)
	stranger := testutil.SeedUser(t, db, domain.RoleInstructor)
	c := testutil.SeedCourse(t, db, owner.ID, "5000", false)
	ctx := context.Background()

	if _, err := svc.SetPublished(ctx, stranger.ID, domain.RoleInstructor, c.ID, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger publish: got %v", err)
	}
	got, err := svc.SetPublished(ctx, owner.ID, domain.RoleInstructor, c.ID, true)
	if err != nil || !got.Published {
		t.Fatalf("owner publish = %+v, %v", got, err)
	}
	if _, err := svc.SetPublished(ctx, stranger.ID, domain.RoleAdmin, c.ID, false); err != nil {
		t.Fatalf("admin unpublish: %v", err)
	}
	fresh, err := svc.Get(ctx, c.ID)
	if err != nil || fresh.Published {
		t.Fatalf("Get = %+v, %v", fresh, err)
	}
}

func TestCourseService_UploadThumbnail(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.SeedUser(t, db, domain.RoleInstructor)
	c := testutil.SeedCourse(t, db, owner.ID, "5000", true)
	ctx := context.Background()

	if _, err := NewCourseService(repository.NewCourseRepository(db), nil, nil).
		UploadThumbnail(ctx, owner.ID, domain.RoleInstructor, c.ID, strings.NewReader("png")); !errors.Is(err, domain.ErrNotAvailable) {
		t.Fatalf("upload without media store: got %v", err)
	}

	media := &fakeMedia{}
	svc := NewCourseService(repository.NewCourseRepository(db), nil, media)
	got, err := svc.UploadThumbnail(ctx, owner.ID, domain.RoleInstructor, c.ID, strings.NewReader("png"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got.ThumbnailURL, "https://res.cloudinary.test/w_640/thumb_") {
		t.Fatalf("thumbnail url %q", got.ThumbnailURL)
	}
	if len(media.uploaded) != 1 || !strings.HasPrefix(media.uploaded[0], "coursemart/courses/") {
		t.Fatalf("uploads %v", media.uploaded)
	}
	stored, _ := repository.NewCourseRepository(db).GetByID(c.ID)
	if stored.ThumbnailURL != got.ThumbnailURL {
		t.Fatalf("thumbnail not persisted: %q", stored.ThumbnailURL)
	}
}
