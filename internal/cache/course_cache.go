// Package cache holds read-path caches. Nothing here is needed for correctness: a nil or
// unreachable cache only costs a database read.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"coursemart/internal/models"

	"github.com/redis/go-redis/v9"
)

type CourseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCourseCache(rdb *redis.Client, ttl time.Duration) *CourseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CourseCache{rdb: rdb, ttl: ttl}
}

// Available reports whether a Redis client is configured. Safe on a nil receiver.
func (c *CourseCache) Available() bool {
	return c != nil && c.rdb != nil
}

func courseKey(id uint) string {
	return fmt.Sprintf("course:%d", id)
}

// Get returns the cached course, or false on a miss or any Redis error.
func (c *CourseCache) Get(ctx context.Context, id uint) (*models.Course, bool) {
	if !c.Available() {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, courseKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] get course %d: %v", id, err)
		}
		return nil, false
	}
	var course models.Course
	if err := json.Unmarshal(data, &course); err != nil {
		log.Printf("[cache] decode course %d: %v", id, err)
		return nil, false
	}
	return &course, true
}

func (c *CourseCache) Set(ctx context.Context, course *models.Course) {
	if !c.Available() {
		return
	}
	data, err := json.Marshal(course)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, courseKey(course.ID), data, c.ttl).Err(); err != nil {
		log.Printf("[cache] set course %d: %v", course.ID, err)
	}
}

func (c *CourseCache) Invalidate(ctx context.Context, id uint) {
	if !c.Available() {
		return
	}
	if err := c.rdb.Del(ctx, courseKey(id)).Err(); err != nil {
		log.Printf("[cache] invalidate course %d: %v", id, err)
	}
}
