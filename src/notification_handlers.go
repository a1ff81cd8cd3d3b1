package main

import (
	"bts/src/common"
	"bts/src/types"
	"bts/src/utils"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// notificationHandlers registers the gateway webhook. The gateway
// delivers at-least-once and possibly concurrently; the guard turns
// that into effectively-once, serialized per transaction id. Anything
// past the two explicit rejection cases is acknowledged with 200, since
// the gateway retries non-success responses forever.
func notificationHandlers(g *gin.Engine, guard *common.NotificationGuard) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/payments", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		secret := os.Getenv("GATEWAY_NOTIFY_SECRET")
		if secret == "" {
			log.Println("GATEWAY_NOTIFY_SECRET is not configured")
			ctx.Status(http.StatusInternalServerError)
			return
		}

		var notification types.GatewayNotification
		if err := json.Unmarshal(payload, &notification); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if notification.RequestID == "" || notification.Status == nil || notification.Status.Status == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "requestId and status.status are required"})
			return
		}
		requestId := notification.RequestID
		statusCode := notification.Status.Status

		if notification.Signature != "" && notification.Status.Date != "" {
			expected := utils.NotificationSignature(requestId, statusCode, notification.Status.Date, secret)
			supplied := strings.ToLower(notification.Signature)
			if subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) != 1 {
				log.Printf("[webhook] Signature mismatch on notification [%s]\n", requestId)
				ctx.Status(http.StatusUnauthorized)
				return
			}
		} else if notification.Signature == "" {
			// the gateway does not sign every call
			log.Printf("[webhook] Notification [%s] arrived unsigned\n", requestId)
		}

		if guard.ShouldSkipDuplicate(requestId, statusCode) {
			log.Printf("[webhook] Duplicate notification [%s %s] skipped\n", requestId, statusCode)
			ctx.Status(http.StatusOK)
			return
		}
		if !guard.TryAcquireLock(requestId) {
			if !guard.WaitForLock(requestId) || !guard.TryAcquireLock(requestId) {
				// race loser: acknowledge without processing so the
				// gateway does not storm us with retries
				log.Printf("[webhook] Lock wait budget exhausted for [%s]. Dropping notification\n", requestId)
				ctx.Status(http.StatusOK)
				return
			}
		}
		defer guard.ReleaseLock(requestId)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[webhook] Recovered while processing notification [%s]: %v\n", requestId, r)
				if !ctx.Writer.Written() {
					ctx.Status(http.StatusOK)
				}
			}
		}()

		var raw types.JSONB
		json.Unmarshal(payload, &raw)
		status := common.NormalizeGatewayStatus(payload)
		if _, err := common.ReconcileNotification(&common.ReconcileInput{
			RequestID: requestId,
			Reference: notification.Reference,
			Status:    status,
			Payload:   raw,
		}); err != nil {
			// still acknowledged: a recorded failure beats a retry storm
			log.Printf("[webhook] Error reconciling notification [%s]: %s\n", requestId, err.Error())
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}
