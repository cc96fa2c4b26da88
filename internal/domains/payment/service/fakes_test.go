package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	orderModel "printshop-backend/internal/domains/order/model"
	"printshop-backend/internal/domains/payment/gateway"
	"printshop-backend/internal/domains/payment/gateway/redsys"
	"printshop-backend/internal/domains/payment/model"
)

const testSecret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

var fixedNow = time.UnixMilli(1700000123456)

// --- In-memory mapping repository ---

type memoryMappingRepo struct {
	mu        sync.Mutex
	mappings  map[string]model.OrderReferenceMapping
	createErr error
}

func newMemoryMappingRepo() *memoryMappingRepo {
	return &memoryMappingRepo{mappings: make(map[string]model.OrderReferenceMapping)}
}

func (r *memoryMappingRepo) Create(ctx context.Context, m *model.OrderReferenceMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.mappings[m.OrderReference]; ok {
		return fmt.Errorf("reference %s: %w", m.OrderReference, model.ErrReferenceCollision)
	}
	r.mappings[m.OrderReference] = *m
	return nil
}

func (r *memoryMappingRepo) FindByReference(ctx context.Context, ref string) (*model.OrderReferenceMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.mappings[ref]
	if !ok {
		return nil, model.ErrMappingNotFound
	}
	return &m, nil
}

func (r *memoryMappingRepo) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderReferenceMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.OrderReferenceMapping, 0)
	for _, m := range r.mappings {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- In-memory order repository ---

type memoryOrderRepo struct {
	mu        sync.Mutex
	statuses  map[string]string
	history   map[string][]orderModel.OrderStatusHistory
	statusErr error
}

func newMemoryOrderRepo(orders map[string]string) *memoryOrderRepo {
	return &memoryOrderRepo{
		statuses: orders,
		history:  make(map[string][]orderModel.OrderStatusHistory),
	}
}

func (r *memoryOrderRepo) GetStatus(ctx context.Context, orderID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.statusErr != nil {
		return "", r.statusErr
	}
	status, ok := r.statuses[orderID]
	if !ok {
		return "", orderModel.ErrOrderNotFound
	}
	return status, nil
}

func (r *memoryOrderRepo) TransitionFromPending(ctx context.Context, orderID, toStatus, notes string) (*orderModel.OrderStatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.statuses[orderID] != orderModel.OrderStatusPending {
		return nil, orderModel.ErrOrderNotPending
	}
	r.statuses[orderID] = toStatus

	from := orderModel.OrderStatusPending
	entry := orderModel.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: &from,
		ToStatus:   toStatus,
		Notes:      &notes,
		ChangedAt:  time.Now(),
	}
	r.history[orderID] = append(r.history[orderID], entry)
	return &entry, nil
}

func (r *memoryOrderRepo) GetStatusHistory(ctx context.Context, orderID string) ([]orderModel.OrderStatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]orderModel.OrderStatusHistory(nil), r.history[orderID]...), nil
}

func (r *memoryOrderRepo) GetContact(ctx context.Context, orderID string) (*orderModel.OrderContact, error) {
	return nil, orderModel.ErrOrderNotFound
}

func (r *memoryOrderRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	return nil, nil
}

func (r *memoryOrderRepo) status(orderID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[orderID]
}

func (r *memoryOrderRepo) historyCount(orderID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history[orderID])
}

// --- In-memory callback log repository ---

type memoryCallbackLogRepo struct {
	mu      sync.Mutex
	entries []model.CallbackLog
}

func (r *memoryCallbackLogRepo) Create(ctx context.Context, entry *model.CallbackLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memoryCallbackLogRepo) ListByReference(ctx context.Context, ref string) ([]model.CallbackLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.CallbackLog, 0)
	for _, e := range r.entries {
		if e.OrderReference != nil && *e.OrderReference == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Replay guard ---

type memoryReplayGuard struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMemoryReplayGuard() *memoryReplayGuard {
	return &memoryReplayGuard{keys: make(map[string]bool)}
}

func (g *memoryReplayGuard) Seen(ctx context.Context, fingerprint string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	return g.keys[fingerprint], nil
}

func (g *memoryReplayGuard) Remember(ctx context.Context, fingerprint string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.keys[fingerprint] = true
	return nil
}

// --- Notifier mock ---

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyPaymentConfirmed(ctx context.Context, payload model.SendPaymentConfirmationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// --- Gateway doubles ---

type countingGateway struct {
	gateway.RedsysGateway

	mu     sync.Mutex
	builds int
}

func (g *countingGateway) BuildPaymentRequest(req gateway.PaymentRequest) (*gateway.SignedRequest, error) {
	g.mu.Lock()
	g.builds++
	g.mu.Unlock()
	return g.RedsysGateway.BuildPaymentRequest(req)
}

type failingGateway struct {
	gateway.RedsysGateway
	err error
}

func (g *failingGateway) BuildPaymentRequest(req gateway.PaymentRequest) (*gateway.SignedRequest, error) {
	return nil, g.err
}

// --- Fixture ---

type fixture struct {
	service     PaymentService
	client      *redsys.Client
	gateway     *countingGateway
	mappings    *memoryMappingRepo
	orders      *memoryOrderRepo
	callbackLog *memoryCallbackLogRepo
	notifier    *MockNotifier
}

type fixtureOption func(*Dependencies, *Config)

func withReplayGuard(g ReplayGuard) fixtureOption {
	return func(d *Dependencies, _ *Config) { d.ReplayGuard = g }
}

func withReplayTimeout(timeout time.Duration) fixtureOption {
	return func(_ *Dependencies, c *Config) { c.ReplayTimeout = timeout }
}

// stalledReplayGuard models a Redis server that accepts the connection and
// never answers: every call blocks until the context gives up.
type stalledReplayGuard struct {
	mu    sync.Mutex
	calls int
}

func (g *stalledReplayGuard) wait(ctx context.Context) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return errors.New("stalled guard was never cancelled")
	}
}

func (g *stalledReplayGuard) Seen(ctx context.Context, fingerprint string) (bool, error) {
	return false, g.wait(ctx)
}

func (g *stalledReplayGuard) Remember(ctx context.Context, fingerprint string) error {
	return g.wait(ctx)
}

func withNotifyTimeout(timeout time.Duration) fixtureOption {
	return func(_ *Dependencies, c *Config) { c.NotifyTimeout = timeout }
}

func withGateway(gw gateway.RedsysGateway) fixtureOption {
	return func(d *Dependencies, _ *Config) { d.Gateway = gw }
}

func newFixture(t *testing.T, orders map[string]string, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := redsys.NewConfig("999008881", "1", testSecret, redsys.EnvironmentTest)
	cfg.MerchantURL = "https://api.example.test/api/v1/webhooks/redsys"
	client, err := redsys.NewClient(cfg)
	require.NoError(t, err)

	f := &fixture{
		client:      client,
		gateway:     &countingGateway{RedsysGateway: client},
		mappings:    newMemoryMappingRepo(),
		orders:      newMemoryOrderRepo(orders),
		callbackLog: &memoryCallbackLogRepo{},
		notifier:    new(MockNotifier),
	}

	deps := Dependencies{
		Gateway:         f.gateway,
		References:      redsys.NewReferenceGenerator(func() time.Time { return fixedNow }),
		MappingRepo:     f.mappings,
		CallbackLogRepo: f.callbackLog,
		OrderRepo:       f.orders,
		Notifier:        f.notifier,
		Now:             func() time.Time { return fixedNow },
	}
	config := Config{NotifyTimeout: time.Second}

	for _, opt := range opts {
		opt(&deps, &config)
	}

	f.service = NewPaymentService(deps, config)
	return f
}

// seedMapping registers a reference the way a prepare call would.
func (f *fixture) seedMapping(t *testing.T, ref, orderID string, amountMinor int64) {
	t.Helper()
	require.NoError(t, f.mappings.Create(context.Background(), &model.OrderReferenceMapping{
		OrderReference: ref,
		OrderID:        orderID,
		AmountMinor:    amountMinor,
		Currency:       redsys.CurrencyEUR,
	}))
}

// gatewayCallback builds the form the gateway would post for ref.
func gatewayCallback(t *testing.T, ref, responseCode string, extra map[string]string) model.RedsysCallbackRequest {
	t.Helper()

	params := map[string]string{
		"Ds_Date":              "16/10/2026",
		"Ds_Hour":              "12:00",
		"Ds_Amount":            "1999",
		"Ds_Currency":          "978",
		"Ds_Order":             ref,
		"Ds_MerchantCode":      "999008881",
		"Ds_Terminal":          "1",
		"Ds_Response":          responseCode,
		"Ds_TransactionType":   "0",
		"Ds_SecurePayment":     "1",
		"Ds_AuthorisationCode": "123456",
	}
	for k, v := range extra {
		params[k] = v
	}

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(raw)

	signature, err := redsys.Sign([]byte(encoded), ref, testSecret)
	require.NoError(t, err)

	return model.RedsysCallbackRequest{
		SignatureVersion:   redsys.SignatureVersionHMACSHA256V1,
		MerchantParameters: encoded,
		Signature:          signature,
	}
}
