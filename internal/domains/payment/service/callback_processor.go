package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	orderModel "printshop-backend/internal/domains/order/model"
	"printshop-backend/internal/domains/payment/gateway/redsys"
	"printshop-backend/internal/domains/payment/model"
	"printshop-backend/pkg/logger"
)

const callbackLogTimeout = 3 * time.Second

// =====================================================
// REDSYS CALLBACK
// =====================================================

// ProcessRedsysCallback applies one gateway notification.
//
// Business Logic Flow:
// 1. Check the three form fields are present
// 2. Decode Ds_MerchantParameters and read Ds_Order
// 3. Verify Ds_Signature against the raw encoded parameters
// 4. Short-circuit notifications already seen (replay guard)
// 5. Resolve the order through the reference mapping
// 6. Conditionally move the order out of pending, with history
// 7. On first completion, trigger the confirmation email
//
// Every outcome is logged and written to the callback audit table.
func (s *paymentService) ProcessRedsysCallback(
	ctx context.Context,
	req model.RedsysCallbackRequest,
) model.CallbackResult {
	result, event := s.handleCallback(ctx, req)
	s.recordCallback(ctx, req, event, result)
	return result
}

func (s *paymentService) handleCallback(
	ctx context.Context,
	req model.RedsysCallbackRequest,
) (model.CallbackResult, *model.CallbackEvent) {
	// Step 1: Required fields
	if !req.HasRequiredFields() {
		return model.CallbackResult{Outcome: model.OutcomeMalformed}, nil
	}

	// Step 2: Decode
	notification, err := s.gateway.DecodeNotification(req.MerchantParameters)
	if err != nil {
		logger.Warn("Undecodable Redsys notification", map[string]interface{}{
			"error": err.Error(),
		})
		return model.CallbackResult{Outcome: model.OutcomeMalformed}, nil
	}

	event := &model.CallbackEvent{
		OrderReference:    notification.OrderReference,
		ResponseCode:      notification.ResponseCode,
		AuthorizationCode: notification.AuthorizationCode,
		Amount:            notification.Amount,
		SignatureVersion:  req.SignatureVersion,
		EncodedParams:     req.MerchantParameters,
	}
	result := model.CallbackResult{OrderReference: event.OrderReference}

	if event.OrderReference == "" {
		result.Outcome = model.OutcomeMalformed
		return result, event
	}

	if req.SignatureVersion != s.gateway.SignatureVersion() {
		logger.Warn("Unexpected Redsys signature version", map[string]interface{}{
			"order_reference":   event.OrderReference,
			"signature_version": req.SignatureVersion,
		})
	}

	// Step 3: Signature
	if !s.gateway.VerifyNotification(req.MerchantParameters, event.OrderReference, req.Signature) {
		result.Outcome = model.OutcomeSignatureInvalid
		return result, event
	}

	// Step 4: Replay guard
	fingerprint := CallbackFingerprint(req)
	if s.seen(ctx, fingerprint) {
		result.Outcome = model.OutcomeAlreadyProcessed
		return result, event
	}

	// Step 5: Mapping
	if !redsys.IsValidOrderReference(event.OrderReference) {
		// No mapping can exist for a reference we never issue
		result.Outcome = model.OutcomeMappingNotFound
		return result, event
	}

	mapping, err := s.mappingRepo.FindByReference(ctx, event.OrderReference)
	if err != nil {
		if errors.Is(err, model.ErrMappingNotFound) {
			result.Outcome = model.OutcomeMappingNotFound
			return result, event
		}
		logger.ErrorWithFields("Failed to resolve order reference", err, map[string]interface{}{
			"order_reference": event.OrderReference,
		})
		result.Outcome = model.OutcomeInternalError
		return result, event
	}
	result.OrderID = mapping.OrderID

	// Step 6: Transition
	currentStatus, err := s.orderRepo.GetStatus(ctx, mapping.OrderID)
	if err != nil {
		if errors.Is(err, orderModel.ErrOrderNotFound) {
			result.Outcome = model.OutcomeOrderNotFound
			return result, event
		}
		logger.ErrorWithFields("Failed to load order status", err, map[string]interface{}{
			"order_id": mapping.OrderID,
		})
		result.Outcome = model.OutcomeInternalError
		return result, event
	}

	if orderModel.IsTerminalStatus(currentStatus) {
		result.Outcome = model.OutcomeAlreadyProcessed
		result.NewStatus = currentStatus
		s.remember(ctx, fingerprint)
		return result, event
	}

	newStatus := orderModel.OrderStatusPaymentFailed
	if redsys.IsAuthorizedResponse(event.ResponseCode) {
		newStatus = orderModel.OrderStatusCompleted
	}

	if _, err := s.orderRepo.TransitionFromPending(ctx, mapping.OrderID, newStatus, transitionNote(event)); err != nil {
		if errors.Is(err, orderModel.ErrOrderNotPending) {
			// A concurrent delivery won the conditional update
			result.Outcome = model.OutcomeAlreadyProcessed
			s.remember(ctx, fingerprint)
			return result, event
		}
		logger.ErrorWithFields("Failed to transition order", err, map[string]interface{}{
			"order_id":  mapping.OrderID,
			"to_status": newStatus,
		})
		result.Outcome = model.OutcomeInternalError
		return result, event
	}

	result.Outcome = model.OutcomeApplied
	result.NewStatus = newStatus
	s.remember(ctx, fingerprint)

	// Step 7: Confirmation email
	if newStatus == orderModel.OrderStatusCompleted {
		s.notifyConfirmed(ctx, mapping.OrderID, event)
	}

	return result, event
}

// transitionNote is the history note of a callback-driven status change.
func transitionNote(event *model.CallbackEvent) string {
	note := fmt.Sprintf("Redsys response %s: %s (reference %s)",
		event.ResponseCode, redsys.GetResponseMessage(event.ResponseCode), event.OrderReference)
	if event.AuthorizationCode != "" {
		note += fmt.Sprintf(", authorisation %s", event.AuthorizationCode)
	}
	return note
}

// notifyConfirmed enqueues the confirmation email. Failures are logged and
// never change the callback outcome.
func (s *paymentService) notifyConfirmed(ctx context.Context, orderID string, event *model.CallbackEvent) {
	if s.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.NotifyTimeout)
	defer cancel()

	started := s.now()
	err := s.notifier.NotifyPaymentConfirmed(notifyCtx, model.SendPaymentConfirmationPayload{
		OrderID:           orderID,
		OrderReference:    event.OrderReference,
		AuthorizationCode: event.AuthorizationCode,
	})
	if err != nil {
		logger.ErrorWithFields("Failed to trigger payment confirmation email", err, map[string]interface{}{
			"order_id":        orderID,
			"order_reference": event.OrderReference,
		})
		return
	}

	logger.Info("Payment confirmation email queued", map[string]interface{}{
		"order_id":   orderID,
		"latency_ms": s.now().Sub(started).Milliseconds(),
	})
}

// =====================================================
// REPLAY GUARD
// =====================================================

// CallbackFingerprint identifies a notification by its signed content.
func CallbackFingerprint(req model.RedsysCallbackRequest) string {
	sum := sha256.Sum256([]byte(req.MerchantParameters + "|" + redsys.NormalizeSignature(req.Signature)))
	return hex.EncodeToString(sum[:])
}

func (s *paymentService) seen(ctx context.Context, fingerprint string) bool {
	if s.replayGuard == nil {
		return false
	}
	guardCtx, cancel := context.WithTimeout(ctx, s.config.ReplayTimeout)
	defer cancel()

	seen, err := s.replayGuard.Seen(guardCtx, fingerprint)
	if err != nil {
		logger.Warn("Replay guard unavailable", map[string]interface{}{"error": err.Error()})
		return false
	}
	return seen
}

func (s *paymentService) remember(ctx context.Context, fingerprint string) {
	if s.replayGuard == nil {
		return
	}
	guardCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ReplayTimeout)
	defer cancel()

	if err := s.replayGuard.Remember(guardCtx, fingerprint); err != nil {
		logger.Warn("Failed to remember callback", map[string]interface{}{"error": err.Error()})
	}
}

// =====================================================
// AUDIT
// =====================================================

func (s *paymentService) recordCallback(
	ctx context.Context,
	req model.RedsysCallbackRequest,
	event *model.CallbackEvent,
	result model.CallbackResult,
) {
	fields := map[string]interface{}{
		"outcome":           string(result.Outcome),
		"signature_version": req.SignatureVersion,
		"signature":         model.RedactSignature(req.Signature),
		"payload_excerpt":   model.Excerpt(req.MerchantParameters, model.PayloadExcerptLength),
	}
	if event != nil {
		fields["order_reference"] = event.OrderReference
		fields["response_code"] = event.ResponseCode
	}
	if result.OrderID != "" {
		fields["order_id"] = result.OrderID
	}
	if result.NewStatus != "" {
		fields["status"] = result.NewStatus
	}

	logger.Log(outcomeLevel(result.Outcome), "Redsys callback processed", fields)

	if s.callbackLogRepo == nil {
		return
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), callbackLogTimeout)
	defer cancel()

	entry := model.NewCallbackLog(result.Outcome, req, event, result.OrderID)
	entry.ReceivedAt = s.now()
	if err := s.callbackLogRepo.Create(logCtx, entry); err != nil {
		logger.Error("Failed to store callback log", err)
	}
}

func outcomeLevel(outcome model.CallbackOutcome) zerolog.Level {
	switch outcome {
	case model.OutcomeApplied, model.OutcomeAlreadyProcessed:
		return zerolog.InfoLevel
	case model.OutcomeInternalError, model.OutcomeOrderNotFound:
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}
