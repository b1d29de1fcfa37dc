package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coursemart/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
)

func TestCourseCache_SetThenGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCourseCache(db, time.Minute)
	ctx := context.Background()

	course := &models.Course{ID: 3, Title: "Go", Slug: "go", Price: decimal.NewFromInt(5000), Currency: "NGN", Published: true, EnrollmentCount: 4}
	data, _ := json.Marshal(course)
	mock.ExpectSet("course:3", data, time.Minute).SetVal("OK")
	mock.ExpectGet("course:3").SetVal(string(data))

	c.Set(ctx, course)
	got, ok := c.Get(ctx, 3)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Title != "Go" || !got.Price.Equal(course.Price) || got.EnrollmentCount != 4 {
		t.Fatalf("unexpected course %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCourseCache_MissAndError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCourseCache(db, time.Minute)

	mock.ExpectGet("course:1").RedisNil()
	mock.ExpectGet("course:2").SetErr(errors.New("connection refused"))
	mock.ExpectDel("course:2").SetVal(1)

	if _, ok := c.Get(context.Background(), 1); ok {
		t.Fatal("nil reply must be a miss")
	}
	if _, ok := c.Get(context.Background(), 2); ok {
		t.Fatal("redis error must be a miss")
	}
	c.Invalidate(context.Background(), 2)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCourseCache_NilIsUnavailable(t *testing.T) {
	var c *CourseCache
	if c.Available() {
		t.Fatal("nil cache reported available")
	}
	if _, ok := c.Get(context.Background(), 1); ok {
		t.Fatal("nil cache returned a hit")
	}
	c.Set(context.Background(), &models.Course{ID: 1})
	c.Invalidate(context.Background(), 1)

	if NewCourseCache(nil, 0).Available() {
		t.Fatal("cache without a client reported available")
	}
}
