package transaction

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagora/internal/models"
	"pagora/internal/repositories"
	"pagora/internal/services/gateway"
)

var testFeeRates = map[models.PaymentMethod]int64{
	models.MethodCreditCard: 250,
	models.MethodPix:        99,
}

// fakeLedger is an in-memory LedgerStore with transactional rollback, so
// the atomicity of dedup + transition + side effects is observable.
type fakeLedger struct {
	transactions map[string]*models.Transaction
	byRef        map[string]string
	dedup        map[string]bool
	fees         []models.Fee
	wallets      map[uint]*models.Wallet
	customers    map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		transactions: make(map[string]*models.Transaction),
		byRef:        make(map[string]string),
		dedup:        make(map[string]bool),
		wallets:      make(map[uint]*models.Wallet),
		customers:    make(map[string]string),
	}
}

func (f *fakeLedger) snapshot() *fakeLedger {
	c := newFakeLedger()
	for k, v := range f.transactions {
		cp := *v
		c.transactions[k] = &cp
	}
	for k, v := range f.byRef {
		c.byRef[k] = v
	}
	for k, v := range f.dedup {
		c.dedup[k] = v
	}
	c.fees = append(c.fees, f.fees...)
	for k, v := range f.wallets {
		cp := *v
		c.wallets[k] = &cp
	}
	for k, v := range f.customers {
		c.customers[k] = v
	}
	return c
}

func (f *fakeLedger) restore(s *fakeLedger) {
	f.transactions = s.transactions
	f.byRef = s.byRef
	f.dedup = s.dedup
	f.fees = s.fees
	f.wallets = s.wallets
	f.customers = s.customers
}

func (f *fakeLedger) WithinTx(ctx context.Context, fn func(repositories.LedgerStore) error) error {
	snap := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeLedger) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	cp := *tx
	f.transactions[tx.ID] = &cp
	f.byRef[tx.Provider+"|"+tx.ProviderRef] = tx.ID
	return nil
}

func (f *fakeLedger) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	cp := *tx
	f.transactions[tx.ID] = &cp
	return nil
}

func (f *fakeLedger) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeLedger) GetTransactionByProviderRef(ctx context.Context, provider, ref string) (*models.Transaction, error) {
	id, ok := f.byRef[provider+"|"+ref]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return f.GetTransactionByID(ctx, id)
}

func (f *fakeLedger) TryInsertDedupKey(ctx context.Context, provider, eventID string) (bool, error) {
	key := provider + "|" + eventID
	if f.dedup[key] {
		return false, nil
	}
	f.dedup[key] = true
	return true, nil
}

func (f *fakeLedger) InsertFee(ctx context.Context, fee *models.Fee) error {
	f.fees = append(f.fees, *fee)
	return nil
}

func (f *fakeLedger) GetWallet(ctx context.Context, merchantID uint) (*models.Wallet, error) {
	w, ok := f.wallets[merchantID]
	if !ok {
		return nil, repositories.ErrWalletMissing
	}
	cp := *w
	return &cp, nil
}

func (f *fakeLedger) AdjustWalletPending(ctx context.Context, merchantID uint, delta int64) error {
	w, ok := f.wallets[merchantID]
	if !ok {
		if delta < 0 {
			return repositories.ErrWalletMissing
		}
		f.wallets[merchantID] = &models.Wallet{MerchantID: merchantID, Pending: delta}
		return nil
	}
	if w.Pending+delta < 0 {
		return repositories.ErrInsufficientBalance
	}
	w.Pending += delta
	return nil
}

func (f *fakeLedger) GetCustomerRef(ctx context.Context, merchantID uint, provider, email string) (string, error) {
	ref, ok := f.customers[fmt.Sprintf("%d|%s|%s", merchantID, provider, email)]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return ref, nil
}

func (f *fakeLedger) SaveCustomerRef(ctx context.Context, c *models.Customer) error {
	f.customers[fmt.Sprintf("%d|%s|%s", c.MerchantID, c.Provider, c.Email)] = c.ProviderRef
	return nil
}

func seedTransaction(f *fakeLedger, status models.TransactionStatus) *models.Transaction {
	tx := &models.Transaction{
		ID:          "tx-1",
		MerchantID:  7,
		Amount:      10000,
		Currency:    "BRL",
		Method:      models.MethodCreditCard,
		Provider:    "stripe",
		ProviderRef: "pi_123",
		Status:      status,
	}
	_ = f.CreateTransaction(context.Background(), tx)
	return tx
}

func newTestService(f *fakeLedger) Service {
	return NewService(f, gateway.NewRegistry(), testFeeRates, nil)
}

func applyEvent(t *testing.T, svc Service, eventID string, target models.TransactionStatus) (*ApplyResult, error) {
	t.Helper()
	return svc.ApplyProviderEvent(context.Background(), ApplyInput{
		Provider:    "stripe",
		EventID:     eventID,
		EventType:   "test.event",
		ProviderRef: "pi_123",
		Target:      target,
	})
}

func TestCanTransition(t *testing.T) {
	valid := []struct{ from, to models.TransactionStatus }{
		{models.StatusPending, models.StatusProcessing},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusProcessing, models.StatusPaid},
		{models.StatusProcessing, models.StatusFailed},
		{models.StatusPaid, models.StatusRefunded},
		{models.StatusPaid, models.StatusChargeback},
	}
	for _, e := range valid {
		assert.True(t, CanTransition(e.from, e.to), "%s -> %s should be valid", e.from, e.to)
	}

	invalid := []struct{ from, to models.TransactionStatus }{
		{models.StatusPaid, models.StatusFailed},
		{models.StatusPaid, models.StatusPending},
		{models.StatusFailed, models.StatusPaid},
		{models.StatusCancelled, models.StatusProcessing},
		{models.StatusRefunded, models.StatusPaid},
		{models.StatusPending, models.StatusFailed},
		{models.StatusPending, models.StatusRefunded},
	}
	for _, e := range invalid {
		assert.False(t, CanTransition(e.from, e.to), "%s -> %s should be invalid", e.from, e.to)
	}
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		rateBps int64
		want    int64
	}{
		{"exact", 10000, 250, 250},
		{"below half rounds down", 10001, 250, 250},
		{"half rounds up", 10020, 250, 251},
		{"zero rate", 10000, 0, 0},
		{"small amount", 1, 250, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFee(tt.amount, tt.rateBps))
		})
	}
}

func TestApplyProviderEvent_PaidSideEffects(t *testing.T) {
	f := newFakeLedger()
	seedTransaction(f, models.StatusProcessing)
	svc := newTestService(f)

	res, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	tx := f.transactions["tx-1"]
	assert.Equal(t, models.StatusPaid, tx.Status)
	assert.Equal(t, int64(250), tx.Fee)
	assert.Equal(t, int64(9750), tx.Net)
	require.NotNil(t, tx.CompletedAt)

	require.Len(t, f.fees, 1)
	assert.Equal(t, int64(250), f.fees[0].Amount)
	assert.Equal(t, models.FeeKindCharge, f.fees[0].Kind)

	w := f.wallets[7]
	require.NotNil(t, w)
	assert.Equal(t, int64(9750), w.Pending)
}

func TestApplyProviderEvent_InvalidTransition(t *testing.T) {
	f := newFakeLedger()
	seedTransaction(f, models.StatusProcessing)
	svc := newTestService(f)

	_, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)

	// A stale failure arriving after paid must not revert the state.
	res, err := applyEvent(t, svc, "evt-2", models.StatusFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, res.Changed)

	assert.Equal(t, models.StatusPaid, f.transactions["tx-1"].Status)
	assert.Len(t, f.fees, 1)
	assert.Equal(t, int64(9750), f.wallets[7].Pending)
	// The event is still recorded for audit.
	assert.True(t, f.dedup["stripe|evt-2"])
}

func TestApplyProviderEvent_Idempotent(t *testing.T) {
	f := newFakeLedger()
	seedTransaction(f, models.StatusProcessing)
	svc := newTestService(f)

	first, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Changed)

	assert.Len(t, f.fees, 1)
	assert.Equal(t, int64(9750), f.wallets[7].Pending)
	assert.Len(t, f.dedup, 1)
}

func TestApplyProviderEvent_TerminalReapplyIsNoop(t *testing.T) {
	f := newFakeLedger()
	seedTransaction(f, models.StatusProcessing)
	svc := newTestService(f)

	_, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)

	// Same terminal target under a fresh event id: no-op, not an error.
	res, err := applyEvent(t, svc, "evt-2", models.StatusPaid)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Duplicate)
	assert.Len(t, f.fees, 1)
}

func TestApplyProviderEvent_UnknownTransaction(t *testing.T) {
	f := newFakeLedger()
	svc := newTestService(f)

	_, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	assert.ErrorIs(t, err, ErrUnknownTransaction)

	// Everything rolled back, dedup key included: once the transaction
	// exists, a redelivery of the same event must still apply.
	assert.Empty(t, f.dedup)
	assert.Empty(t, f.fees)
	assert.Empty(t, f.wallets)

	seedTransaction(f, models.StatusProcessing)
	res, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestApplyProviderEvent_RefundDebitsWallet(t *testing.T) {
	f := newFakeLedger()
	seedTransaction(f, models.StatusProcessing)
	svc := newTestService(f)

	_, err := applyEvent(t, svc, "evt-1", models.StatusPaid)
	require.NoError(t, err)

	res, err := applyEvent(t, svc, "evt-2", models.StatusRefunded)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	tx := f.transactions["tx-1"]
	assert.Equal(t, models.StatusRefunded, tx.Status)
	assert.Equal(t, int64(10000), tx.RefundedAmount)
	require.NotNil(t, tx.RefundedAt)

	assert.Equal(t, int64(0), f.wallets[7].Pending)

	require.Len(t, f.fees, 2)
	assert.Equal(t, models.FeeKindReversal, f.fees[1].Kind)
	assert.Equal(t, int64(-250), f.fees[1].Amount)
}

// fakeGateway lets CreatePayment run without a provider.
type fakeGateway struct {
	intent *gateway.IntentResult
	err    error
}

func (g *fakeGateway) Name() string            { return "stripe" }
func (g *fakeGateway) SignatureHeader() string { return "X-Test-Signature" }

func (g *fakeGateway) CreateIntent(ctx context.Context, in gateway.IntentInput) (*gateway.IntentResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.intent, nil
}

func (g *fakeGateway) ResolveOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	return "cus_fake", nil
}

func (g *fakeGateway) VerifyEvent(ctx context.Context, rawBody []byte, sigHeader, secret string) (*gateway.Event, error) {
	return nil, nil
}

func TestCreatePayment(t *testing.T) {
	f := newFakeLedger()
	reg := gateway.NewRegistry()
	reg.Register(&fakeGateway{intent: &gateway.IntentResult{
		ProviderRef:  "pi_new",
		ClientSecret: "secret_123",
		Status:       models.StatusPending,
	}}, models.MethodCreditCard)
	svc := NewService(f, reg, testFeeRates, nil)

	res, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		MerchantID:    7,
		Amount:        5000,
		Currency:      "brl",
		Method:        models.MethodCreditCard,
		CustomerEmail: "buyer@example.com",
		Description:   "order 42",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret_123", res.ClientSecret)

	tx := res.Transaction
	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, "pi_new", tx.ProviderRef)
	assert.Equal(t, "BRL", tx.Currency)
	assert.Equal(t, "cus_fake", tx.CustomerRef)
	assert.NotEmpty(t, tx.ID)

	stored, err := f.GetTransactionByProviderRef(context.Background(), "stripe", "pi_new")
	require.NoError(t, err)
	assert.Equal(t, tx.ID, stored.ID)
}

func TestCreatePayment_Validation(t *testing.T) {
	svc := newTestService(newFakeLedger())

	tests := []struct {
		name  string
		input CreatePaymentInput
		want  error
	}{
		{"zero amount", CreatePaymentInput{Amount: 0, Currency: "BRL", Method: models.MethodPix}, ErrInvalidAmount},
		{"negative amount", CreatePaymentInput{Amount: -10, Currency: "BRL", Method: models.MethodPix}, ErrInvalidAmount},
		{"bad method", CreatePaymentInput{Amount: 100, Currency: "BRL", Method: "cash"}, ErrInvalidMethod},
		{"bad currency", CreatePaymentInput{Amount: 100, Currency: "REAIS", Method: models.MethodPix}, ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePayment(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
