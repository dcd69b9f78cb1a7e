package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchSummaryCounts(t *testing.T) {
	var summary BatchSummary
	summary.Succeeded()
	summary.Succeeded()
	summary.Failed("item-3", "CONFLICT", errors.New("insufficient stock"))

	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailCount)
	assert.Equal(t, []BatchItemError{{ID: "item-3", Code: "CONFLICT", Message: "insufficient stock"}}, summary.Errors)
}
