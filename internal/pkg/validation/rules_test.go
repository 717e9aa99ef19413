package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"9:30", 0, false},
		{"09:60", 0, false},
		{"", 0, false},
		{"noon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseClock(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.minutes, got)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-02-29")
	assert.True(t, ok)
	assert.Equal(t, 29, d.Day())

	for _, bad := range []string{"2023-02-29", "29.02.2024", "2024-2-1", ""} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("parent@example.com"))
	assert.True(t, IsEmail("First.Last+tag@mail.example.org"))
	assert.False(t, IsEmail("parent@"))
	assert.False(t, IsEmail("not an email"))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Fractions", SanitizeText("  <b>Fractions</b> "))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "Maths & Physics", SanitizeText("Maths & Physics"))
}

func TestStringValidation(t *testing.T) {
	assert.True(t, ValidName("Ana"))
	assert.True(t, ValidName("Zoë"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName(strings.Repeat("a", NameMaxLength+1)))

	assert.True(t, NewStringValidation("").WithRequired(false).WithPattern(CompiledPatterns.Email).Validate())
	assert.False(t, NewStringValidation("x").WithPattern(CompiledPatterns.Email).Validate())
}

func TestFitsLength(t *testing.T) {
	assert.True(t, FitsLength("", PhoneMaxLength))
	assert.True(t, FitsLength(strings.Repeat("ü", NameMaxLength), NameMaxLength))
	assert.False(t, FitsLength(strings.Repeat("1", PhoneMaxLength+1), PhoneMaxLength))
}
