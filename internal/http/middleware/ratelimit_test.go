package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterEnforcesBurst(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	// 1/min refill with burst 3: the fourth immediate request must fail.
	rl := NewIPRateLimiter(1, 3, testLogger(t))
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/jobs", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	statuses := []int{}
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.RemoteAddr = "10.1.2.3:55555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	for i := 0; i < 3; i++ {
		if statuses[i] != http.StatusOK {
			t.Errorf("request %d: expected status 200, got %d", i+1, statuses[i])
		}
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Errorf("request 4: expected status 429, got %d", statuses[3])
	}
}

func TestRateLimiterTracksIPsSeparately(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	rl := NewIPRateLimiter(1, 1, testLogger(t))
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/jobs", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("first request from %s: expected status 200, got %d", addr, rec.Code)
		}
	}
}
