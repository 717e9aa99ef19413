package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ginContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.EqualValues(t, 20, offset)
	assert.Equal(t, 10, limit)

	offset, limit = CalculateOffsetLimit(0, 500)
	assert.EqualValues(t, 0, offset)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	empty := NewPaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParsePaginationParams(t *testing.T) {
	page, size := ParsePaginationParams(ginContext("/sessions?page=2&pageSize=50"))
	assert.Equal(t, 2, page)
	assert.Equal(t, 50, size)

	page, size = ParsePaginationParams(ginContext("/sessions?page=-1&size=1000"))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestParseOptionalID(t *testing.T) {
	id, ok := ParseOptionalID(ginContext("/sessions"), "student_id")
	assert.True(t, ok)
	assert.Nil(t, id)

	id, ok = ParseOptionalID(ginContext("/sessions?student_id=4"), "student_id")
	assert.True(t, ok)
	assert.EqualValues(t, 4, *id)

	_, ok = ParseOptionalID(ginContext("/sessions?student_id=abc"), "student_id")
	assert.False(t, ok)
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, NilIfEmpty(nil))
	assert.Nil(t, StringPtrIfNotEmpty("   "))
	assert.Equal(t, "x@y.de", *StringPtrIfNotEmpty(" x@y.de "))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 8*time.Hour, ParseDuration("8h", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("eight hours", time.Minute))
}
