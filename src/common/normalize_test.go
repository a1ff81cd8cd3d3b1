package common

import (
	"bts/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGatewayStatus(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    types.GatewayStatus
	}{
		{
			name:    "nested status object",
			payload: `{"requestId":"TX1","status":{"status":"APPROVED","date":"2024-01-01T00:00:00Z","message":"ok"}}`,
			want:    types.GatewayStatus{Status: "APPROVED", Date: "2024-01-01T00:00:00Z", Message: "ok"},
		},
		{
			name:    "root level status string",
			payload: `{"status":"REJECTED","date":"2024-01-01T00:00:00Z","message":"declined"}`,
			want:    types.GatewayStatus{Status: "REJECTED", Date: "2024-01-01T00:00:00Z", Message: "declined"},
		},
		{
			name:    "payment array takes the last entry",
			payload: `{"requestId":"TX1","payment":[{"status":{"status":"PENDING"}},{"status":{"status":"APPROVED","date":"2024-01-02T00:00:00Z"}}]}`,
			want:    types.GatewayStatus{Status: "APPROVED", Date: "2024-01-02T00:00:00Z"},
		},
		{
			name:    "unrecognized shape maps to pending",
			payload: `{"foo":"bar"}`,
			want:    types.GatewayStatus{Status: types.GATEWAY_PENDING},
		},
		{
			name:    "empty status object maps to pending",
			payload: `{"status":{}}`,
			want:    types.GatewayStatus{Status: types.GATEWAY_PENDING},
		},
		{
			name:    "invalid json maps to pending",
			payload: `{"status":`,
			want:    types.GatewayStatus{Status: types.GATEWAY_PENDING},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeGatewayStatus([]byte(tt.payload))
			assert.Equal(t, tt.want, got)
		})
	}
}
