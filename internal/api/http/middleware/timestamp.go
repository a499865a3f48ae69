package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/timestamp"
)

// TimestampHeader carries the server time of every storage response.
const TimestampHeader = "X-Weave-Timestamp"

const timestampKey = "weave_timestamp"

// Timestamp stamps the request with the current server time, rounded to
// storage precision, and sets TimestampHeader on the response.
func Timestamp(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts := timestamp.FromTime(now())
		c.Set(timestampKey, ts)
		c.Header(TimestampHeader, strconv.FormatFloat(ts, 'f', 2, 64))
		c.Next()
	}
}

// RequestTimestamp returns the time stamped by Timestamp.
func RequestTimestamp(c *gin.Context) float64 {
	return c.GetFloat64(timestampKey)
}
