package helpers

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "ñañ", TruncateRunes("ñañaña", 3))

	long := strings.Repeat("é", 300)
	assert.Equal(t, 255, len([]rune(TruncateRunes(long, 255))))
}

func TestTrimmedLen(t *testing.T) {
	assert.Equal(t, 0, TrimmedLen("   \n\t"))
	assert.Equal(t, 5, TrimmedLen("  héllo  "))
}

func TestPagination(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.Equal(t, uint64(20), offset)
	assert.Equal(t, uint64(10), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)

	info := NewPaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	empty := NewPaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)

	offset, limit = CalculateOffsetLimit(math.MaxInt, 50)
	assert.Equal(t, uint64(math.MaxInt64), offset)
	assert.Equal(t, uint64(50), limit)

	offset, _ = CalculateOffsetLimit(math.MaxInt64/20+1, 20)
	assert.Equal(t, uint64(math.MaxInt64/20)*20, offset)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=4&size=5", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 4, page)
	assert.Equal(t, 5, size)

	// gin caches parsed query values per context
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=x&size=-1", nil)
	page, size = ParsePaginationParams(c)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ParseDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}
