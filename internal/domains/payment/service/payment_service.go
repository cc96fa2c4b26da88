package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	orderRepo "printshop-backend/internal/domains/order/repository"
	"printshop-backend/internal/domains/payment/gateway"
	"printshop-backend/internal/domains/payment/gateway/redsys"
	"printshop-backend/internal/domains/payment/model"
	repo "printshop-backend/internal/domains/payment/repository"
	"printshop-backend/pkg/logger"
)

// Config holds the tunables of the payment service.
type Config struct {
	Currency          string        // ISO 4217 numeric code stored on the mapping
	DescriptionFormat string        // fmt template receiving the order id
	NotifyTimeout     time.Duration // bound on the confirmation enqueue
	ReplayTimeout     time.Duration // bound on each replay guard call
}

// Dependencies groups the collaborators of the payment service. ReplayGuard
// and CallbackLogRepo are optional.
type Dependencies struct {
	Gateway         gateway.RedsysGateway
	References      ReferenceGenerator
	MappingRepo     repo.OrderReferenceRepository
	CallbackLogRepo repo.CallbackLogRepository
	OrderRepo       orderRepo.OrderRepository
	Notifier        ConfirmationNotifier
	ReplayGuard     ReplayGuard
	Now             func() time.Time
}

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	gateway         gateway.RedsysGateway
	references      ReferenceGenerator
	mappingRepo     repo.OrderReferenceRepository
	callbackLogRepo repo.CallbackLogRepository
	orderRepo       orderRepo.OrderRepository
	notifier        ConfirmationNotifier
	replayGuard     ReplayGuard
	now             func() time.Time

	config Config
}

func NewPaymentService(deps Dependencies, config Config) PaymentService {
	if config.Currency == "" {
		config.Currency = redsys.CurrencyEUR
	}
	if config.DescriptionFormat == "" {
		config.DescriptionFormat = "Order %s"
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = model.DefaultNotifyTimeout
	}
	if config.ReplayTimeout <= 0 {
		config.ReplayTimeout = model.ReplayGuardTimeout
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &paymentService{
		gateway:         deps.Gateway,
		references:      deps.References,
		mappingRepo:     deps.MappingRepo,
		callbackLogRepo: deps.CallbackLogRepo,
		orderRepo:       deps.OrderRepo,
		notifier:        deps.Notifier,
		replayGuard:     deps.ReplayGuard,
		now:             now,
		config:          config,
	}
}

// =====================================================
// PREPARE PAYMENT
// =====================================================

// PreparePayment builds the signed redirect form for one payment attempt.
//
// Business Logic Flow:
// 1. Validate request (order id, positive amount)
// 2. Derive the 12-digit order reference
// 3. Convert the amount to minor units
// 4. Persist the reference mapping
// 5. Encode and sign the merchant parameters
//
// The mapping is written before anything is signed: a signed request whose
// reference cannot be resolved later must never reach the shopper.
//
// Edge Cases:
// - Invalid input -> PAY001
// - Key derivation failed -> PAY002
// - Reference already allocated -> PAY003 (retryable)
// - Mapping write failed -> PAY004
func (s *paymentService) PreparePayment(
	ctx context.Context,
	req model.PreparePaymentRequest,
) (*model.PreparedPayment, error) {
	// Step 1: Validate request
	req.Normalize()
	if err := req.Validate(); err != nil {
		field, reason := model.FirstValidationError(err)
		return nil, model.NewInvalidRequestError(field, reason)
	}

	// Step 2: Derive order reference
	reference := s.references.Generate(req.OrderID)

	// Step 3: Minor units
	amountMinor, ok := model.ToMinorUnits(req.Amount)
	if !ok {
		return nil, model.NewInvalidRequestError("amount", "is too large")
	}
	if amountMinor <= 0 {
		return nil, model.NewInvalidRequestError("amount", "must be at least 0.01")
	}

	intent := model.PaymentIntent{
		OrderID:        req.OrderID,
		OrderReference: reference,
		AmountMinor:    amountMinor,
		Currency:       s.config.Currency,
		CreatedAt:      s.now(),
	}

	// Step 4: Persist mapping
	mapping := intent.Mapping()
	if err := s.mappingRepo.Create(ctx, mapping); err != nil {
		logger.ErrorWithFields("Failed to persist order reference mapping", err, map[string]interface{}{
			"order_id":        req.OrderID,
			"order_reference": reference,
		})
		return nil, model.NewMappingPersistenceError(reference, err)
	}
	intent.CreatedAt = mapping.CreatedAt

	// Step 5: Encode and sign
	signed, err := s.gateway.BuildPaymentRequest(gateway.PaymentRequest{
		OrderReference: reference,
		AmountMinor:    amountMinor,
		Description:    fmt.Sprintf(s.config.DescriptionFormat, req.OrderID),
	})
	if err != nil {
		var keyErr *redsys.KeyDerivationError
		if errors.As(err, &keyErr) {
			logger.ErrorWithFields("Failed to derive signing key", err, map[string]interface{}{
				"order_reference": reference,
			})
			return nil, model.NewKeyDerivationError(err)
		}
		logger.ErrorWithFields("Failed to build payment request", err, map[string]interface{}{
			"order_reference": reference,
		})
		return nil, model.NewGatewayError(err)
	}

	logger.Info("Payment prepared", map[string]interface{}{
		"order_id":        req.OrderID,
		"order_reference": reference,
		"amount_minor":    amountMinor,
	})

	return &model.PreparedPayment{
		Intent:           intent,
		EncodedParams:    signed.EncodedParams,
		Signature:        signed.Signature,
		SignatureVersion: signed.SignatureVersion,
		FormURL:          signed.FormURL,
	}, nil
}

// =====================================================
// REFERENCE HISTORY
// =====================================================

func (s *paymentService) ListOrderReferences(ctx context.Context, orderID string) ([]model.OrderReferenceMapping, error) {
	mappings, err := s.mappingRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list references of order %s: %w", orderID, err)
	}
	return mappings, nil
}

func (s *paymentService) ListCallbackLogs(ctx context.Context, orderReference string) ([]model.CallbackLog, error) {
	if !redsys.IsValidOrderReference(orderReference) {
		return nil, model.NewPaymentError(model.ErrCodeInvalidReference, "Invalid order reference", nil)
	}
	if s.callbackLogRepo == nil {
		return []model.CallbackLog{}, nil
	}

	logs, err := s.callbackLogRepo.ListByReference(ctx, orderReference)
	if err != nil {
		return nil, fmt.Errorf("list callbacks of reference %s: %w", orderReference, err)
	}
	return logs, nil
}
