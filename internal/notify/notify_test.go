package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$572.00", formatAmount(572))
	assert.Equal(t, "$0.50", formatAmount(0.5))
	assert.Equal(t, "$1234.57", formatAmount(1234.567))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 2, 2024", formatDate("2024-01-02"))
	assert.Equal(t, "Dec 31, 2023", formatDate("2023-12-31"))

	// Unparseable input falls through unchanged
	assert.Equal(t, "not-a-date", formatDate("not-a-date"))
}
