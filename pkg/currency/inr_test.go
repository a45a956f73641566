package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹0", FormatINR(0))
	assert.Equal(t, "₹500", FormatINR(500))
	assert.Equal(t, "₹5,000", FormatINR(5000))
	assert.Equal(t, "₹45,500", FormatINR(45500))
	assert.Equal(t, "₹5,00,000", FormatINR(500000))
	assert.Equal(t, "₹1,23,45,678", FormatINR(12345678))
}
