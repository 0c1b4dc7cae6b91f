package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
)

// IngestRateLimiter caps how often a single grow kit may post sensor
// readings. Firmware in a reboot loop or with a broken sleep timer can
// otherwise flood the store with historized readings.
type IngestRateLimiter struct {
	client        *redis.Client
	maxPerMinute  int
	deviceIDField string
}

func NewIngestRateLimiter(client *redis.Client, maxPerMinute int) *IngestRateLimiter {
	return &IngestRateLimiter{
		client:        client,
		maxPerMinute:  maxPerMinute,
		deviceIDField: "device_id",
	}
}

// IngestRateLimit - per-device rate limit for the sensor ingest endpoint
func (irl *IngestRateLimiter) IngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			DeviceID string `json:"device_id"`
		}
		// ShouldBindBodyWith caches the body so the handler can re-bind it.
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.DeviceID == "" {
			// Let the handler produce the validation error.
			c.Next()
			return
		}

		if !irl.checkRateLimit(body.DeviceID) {
			nextAt := irl.getNextRequestTime(body.DeviceID)
			waitTime := time.Until(nextAt)

			c.Header("X-RateLimit-Limit", strconv.Itoa(irl.maxPerMinute))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(nextAt.Unix(), 10))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Sensor ingest rate limit exceeded",
				"details": gin.H{
					"device_id":            body.DeviceID,
					"max_requests_per_min": irl.maxPerMinute,
					"wait_time_seconds":    int(waitTime.Seconds()),
				},
				"message": fmt.Sprintf("Device posting too fast. Wait %d seconds.", int(waitTime.Seconds())),
			})
			c.Abort()
			return
		}

		remaining := irl.getRemainingRequests(body.DeviceID)
		c.Header("X-RateLimit-Limit", strconv.Itoa(irl.maxPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// checkRateLimit - INCR+EXPIRE counter per device, one minute window
func (irl *IngestRateLimiter) checkRateLimit(deviceID string) bool {
	if irl.client == nil {
		return true // Allow if Redis unavailable
	}

	key := fmt.Sprintf("ingest_rate:%s", deviceID)

	val, err := irl.client.Get(context.Background(), key).Result()
	if err != nil && err != redis.Nil {
		return true // Allow if Redis error
	}

	var currentCount int
	if err == redis.Nil {
		currentCount = 0
	} else {
		currentCount, _ = strconv.Atoi(val)
	}

	if currentCount >= irl.maxPerMinute {
		return false
	}

	pipe := irl.client.Pipeline()
	pipe.Incr(context.Background(), key)
	pipe.Expire(context.Background(), key, time.Minute)
	if _, err := pipe.Exec(context.Background()); err != nil {
		fmt.Printf("Ingest rate limiter error: %v\n", err)
	}

	return true
}

func (irl *IngestRateLimiter) getRemainingRequests(deviceID string) int {
	if irl.client == nil {
		return irl.maxPerMinute
	}

	key := fmt.Sprintf("ingest_rate:%s", deviceID)
	val, err := irl.client.Get(context.Background(), key).Result()
	if err != nil && err != redis.Nil {
		return irl.maxPerMinute
	}

	var currentCount int
	if err == redis.Nil {
		currentCount = 0
	} else {
		currentCount, _ = strconv.Atoi(val)
	}

	remaining := irl.maxPerMinute - currentCount
	if remaining < 0 {
		remaining = 0
	}

	return remaining
}

func (irl *IngestRateLimiter) getNextRequestTime(deviceID string) time.Time {
	if irl.client == nil {
		return time.Now()
	}

	key := fmt.Sprintf("ingest_rate:%s", deviceID)
	ttl, err := irl.client.TTL(context.Background(), key).Result()
	if err != nil {
		return time.Now().Add(time.Minute)
	}

	return time.Now().Add(ttl)
}
