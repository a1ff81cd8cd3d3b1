package common

import (
	"bts/src/types"

	"github.com/tidwall/gjson"
)

// NormalizeGatewayStatus folds the gateway's payload variants into the
// canonical {status, date, message} triple. Three shapes are known:
// a root-level status string, a nested status object (the push
// notification shape) and a payment array whose entries each carry a
// status object (the status-query shape). Anything else comes back as
// PENDING rather than failing.
func NormalizeGatewayStatus(payload []byte) types.GatewayStatus {
	pending := types.GatewayStatus{Status: types.GATEWAY_PENDING}
	if !gjson.ValidBytes(payload) {
		return pending
	}
	body := gjson.ParseBytes(payload)

	status := body.Get("status")
	if status.IsObject() {
		return statusTriple(status)
	}
	if status.Type == gjson.String && status.String() != "" {
		return types.GatewayStatus{
			Status:  status.String(),
			Date:    body.Get("date").String(),
			Message: body.Get("message").String(),
		}
	}
	if payments := body.Get("payment"); payments.IsArray() {
		arr := payments.Array()
		if len(arr) > 0 {
			if last := arr[len(arr)-1].Get("status"); last.IsObject() {
				return statusTriple(last)
			}
		}
	}
	return pending
}

func statusTriple(status gjson.Result) types.GatewayStatus {
	code := status.Get("status").String()
	if code == "" {
		code = types.GATEWAY_PENDING
	}
	return types.GatewayStatus{
		Status:  code,
		Date:    status.Get("date").String(),
		Message: status.Get("message").String(),
	}
}
