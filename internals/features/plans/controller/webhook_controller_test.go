// file: internals/features/plans/controller/webhook_controller_test.go
package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		transaction string
		fraud       string
		want        GatewayResult
	}{
		{"settlement", "", GatewayResultSuccess},
		{"capture", "accept", GatewayResultSuccess},
		{"capture", "", GatewayResultSuccess},
		{"capture", "challenge", GatewayResultPending},
		{"pending", "", GatewayResultPending},
		{"deny", "", GatewayResultFailed},
		{"cancel", "", GatewayResultFailed},
		{"expire", "", GatewayResultFailed},
		{"failure", "", GatewayResultFailed},
		{"SETTLEMENT", "", GatewayResultSuccess}, // case-insensitive
		{"  settlement  ", "", GatewayResultSuccess},
		{"something-new", "", GatewayResultFailed},
		{"", "", GatewayResultFailed},
	}

	for _, tc := range tests {
		got := MapGatewayStatus(tc.transaction, tc.fraud)
		assert.Equal(t, tc.want, got, "transaction=%q fraud=%q", tc.transaction, tc.fraud)
	}
}
