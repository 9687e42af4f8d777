package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"int", 7, 7},
		{"int64", int64(42), 42},
		{"uint8", uint8(3), 3},
		{"float", 9.0, 9},
		{"string", " 12 ", 12},
		{"bytes", []byte("15"), 15},
		{"garbage", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt64(tt.in))
		})
	}
}

func TestToNullable(t *testing.T) {
	assert.Nil(t, ToNullableInt64(nil))
	assert.Nil(t, ToNullableInt64(int64(0)))
	assert.Equal(t, int64(5), ToNullableInt64([]byte("5")))

	assert.Nil(t, ToNullableString(nil))
	assert.Nil(t, ToNullableString(""))
	assert.Equal(t, "x", ToNullableString([]byte("x")))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(int64(1)))
	assert.True(t, ToBool("true"))
	assert.True(t, ToBool([]byte("1")))
	assert.False(t, ToBool("false"))
	assert.False(t, ToBool(nil))
}

func TestToTime(t *testing.T) {
	ref := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	assert.Nil(t, ToTime(nil))
	assert.Nil(t, ToTime(""))
	assert.Nil(t, ToTime(time.Time{}))
	assert.Nil(t, ToTime("not a time"))

	got := ToTime(ref)
	if assert.NotNil(t, got) {
		assert.True(t, ref.Equal(*got))
	}

	got = ToTime("2024-03-01 10:30:00")
	if assert.NotNil(t, got) {
		assert.True(t, ref.Equal(*got))
	}

	got = ToTime([]byte("2024-03-01T10:30:00Z"))
	if assert.NotNil(t, got) {
		assert.True(t, ref.Equal(*got))
	}
}
