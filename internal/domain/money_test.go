package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     string
		expected string
	}{
		{name: "Ten percent of 200", amount: "200", rate: "10", expected: "20"},
		{name: "Five percent of 200", amount: "200", rate: "5", expected: "10"},
		{name: "Zero rate", amount: "150", rate: "0", expected: "0"},
		{name: "Fractional rate", amount: "99.99", rate: "2.5", expected: "2.5"},
		{name: "Rounds to cents", amount: "10", rate: "33.333", expected: "3.33"},
		{name: "Below a cent is dropped", amount: "0.01", rate: "10", expected: "0"},
		{name: "Half a cent rounds up", amount: "0.05", rate: "10", expected: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate))
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestErrAlreadyProcessed(t *testing.T) {
	assert.ErrorIs(t, ErrAlreadyProcessed, ErrInvalidStateTransition)
	assert.ErrorIs(t, Validationf("amount must be positive"), ErrValidation)
}

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "Positive", amount: "200"},
		{name: "Cents", amount: "0.01"},
		{name: "Zero", amount: "0", wantErr: true},
		{name: "Negative", amount: "-5", wantErr: true},
		{name: "Sub-cent", amount: "1.005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
