package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/customer"
	"github.com/mercadopago/sdk-go/pkg/payment"

	"pagora/internal/models"
)

// MercadoPagoGateway adapts Mercado Pago payments, covering the pix and
// boleto methods. Mercado Pago webhook bodies only carry the payment id, so
// event verification fetches the payment to learn its current status.
type MercadoPagoGateway struct {
	payments  payment.Client
	customers customer.Client
}

// NewMercadoPagoGateway builds the Mercado Pago adapter from an access token.
func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create mercado pago config: %w", err)
	}
	return &MercadoPagoGateway{
		payments:  payment.NewClient(cfg),
		customers: customer.NewClient(cfg),
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

func (g *MercadoPagoGateway) SignatureHeader() string { return "X-Signature" }

func (g *MercadoPagoGateway) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	req := payment.Request{
		TransactionAmount: float64(in.Amount) / 100, // Mercado Pago takes major units
		Description:       in.Description,
		PaymentMethodID:   mercadoPagoMethodID(in.Method),
		ExternalReference: in.IdempotencyKey,
	}
	if in.CustomerEmail != "" {
		req.Payer = &payment.PayerRequest{Email: in.CustomerEmail}
	}

	resp, err := g.payments.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return &IntentResult{
		ProviderRef: strconv.Itoa(resp.ID),
		Status:      mapOrPending(mercadoPagoStatus, g.Name(), resp.Status),
	}, nil
}

func (g *MercadoPagoGateway) ResolveOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	resp, err := g.customers.Create(ctx, customer.Request{
		Email:     email,
		FirstName: name,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return resp.ID, nil
}

type mercadoPagoWebhookBody struct {
	ID     json.Number `json:"id"`
	Action string      `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (g *MercadoPagoGateway) VerifyEvent(ctx context.Context, rawBody []byte, sigHeader, secret string) (*Event, error) {
	if err := verifyMercadoPagoSignature(rawBody, sigHeader, secret); err != nil {
		return nil, err
	}

	var body mercadoPagoWebhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("failed to decode mercado pago event: %w", err)
	}
	if body.Data.ID.String() == "" {
		return nil, fmt.Errorf("mercado pago event carries no payment id")
	}

	paymentID, err := strconv.Atoi(body.Data.ID.String())
	if err != nil {
		return nil, fmt.Errorf("invalid mercado pago payment id %q: %w", body.Data.ID.String(), err)
	}

	resp, err := g.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return &Event{
		ID:          body.ID.String(),
		Type:        body.Action,
		ProviderRef: body.Data.ID.String(),
		Status:      mapOrPending(mercadoPagoStatus, g.Name(), resp.Status),
	}, nil
}

// verifyMercadoPagoSignature checks the "ts=...,v1=..." header: v1 is the
// hex HMAC-SHA256 of "<ts>.<body>" under the webhook secret.
func verifyMercadoPagoSignature(rawBody []byte, sigHeader, secret string) error {
	var ts, v1 string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrInvalidSignature
	}
	return nil
}

func mercadoPagoMethodID(m models.PaymentMethod) string {
	switch m {
	case models.MethodBoleto:
		return "bolbradesco"
	default:
		return "pix"
	}
}
