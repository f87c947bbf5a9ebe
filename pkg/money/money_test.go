package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "IDR 94.000", Format(94000, "IDR"))
	assert.Equal(t, "IDR 60.000", Format(60000, "idr"))
	assert.Equal(t, "IDR 1.234.567", Format(1234567, "IDR"))
	assert.Equal(t, "IDR 500", Format(500, "IDR"))
	assert.Equal(t, "BRL 99.50", Format(9950, "BRL"))
	assert.Equal(t, "USD 1,234.05", Format(123405, "USD"))
}
