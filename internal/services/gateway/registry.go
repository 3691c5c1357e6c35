package gateway

import (
	"fmt"

	"pagora/internal/models"
)

// Registry holds the configured gateways and routes payment methods to the
// provider that handles them.
type Registry struct {
	gateways map[string]Gateway
	byMethod map[models.PaymentMethod]string
}

// NewRegistry creates an empty gateway registry.
func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[string]Gateway),
		byMethod: make(map[models.PaymentMethod]string),
	}
}

// Register adds a gateway and claims the given payment methods for it.
func (r *Registry) Register(gw Gateway, methods ...models.PaymentMethod) {
	r.gateways[gw.Name()] = gw
	for _, m := range methods {
		r.byMethod[m] = gw.Name()
	}
}

// Get returns the gateway registered under name.
func (r *Registry) Get(name string) (Gateway, error) {
	gw, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return gw, nil
}

// ForMethod returns the gateway that handles the payment method.
func (r *Registry) ForMethod(m models.PaymentMethod) (Gateway, error) {
	name, ok := r.byMethod[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, m)
	}
	return r.gateways[name], nil
}
