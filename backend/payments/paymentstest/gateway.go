// Package paymentstest provides an in-memory payments.Gateway for tests.
package paymentstest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"coursemarket/backend/models"
	"coursemarket/backend/payments"
)

// Signature is the only webhook signature the fake accepts.
const Signature = "t=1,v1=test"

type Gateway struct {
	mu       sync.Mutex
	seq      int
	payments map[string]*payments.Payment
	orders   map[string]payments.Order

	createErr   error
	retrieveErr error

	CreateCalls   int
	RetrieveCalls int
}

func New() *Gateway {
	return &Gateway{
		payments: make(map[string]*payments.Payment),
		orders:   make(map[string]payments.Order),
	}
}

// FailCreate makes every create call return err until cleared with nil.
func (g *Gateway) FailCreate(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createErr = err
}

// FailRetrieve makes every retrieve call return err until cleared with nil.
func (g *Gateway) FailRetrieve(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieveErr = err
}

// SetStatus simulates the payer finishing (or abandoning) a payment.
func (g *Gateway) SetStatus(ref string, status payments.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.payments[ref]; ok {
		p.Status = status
		return
	}
	g.payments[ref] = &payments.Payment{Ref: ref, Status: status}
}

// Order returns the order a payment was created for.
func (g *Gateway) Order(ref string) (payments.Order, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[ref]
	return o, ok
}

func (g *Gateway) CreateIntent(ctx context.Context, order payments.Order) (*payments.Payment, error) {
	return g.create(ctx, "pi", order)
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, order payments.Order) (*payments.Payment, error) {
	return g.create(ctx, "cs", order)
}

func (g *Gateway) RetrieveIntent(ctx context.Context, ref string) (*payments.Payment, error) {
	return g.retrieve(ctx, ref)
}

func (g *Gateway) RetrieveSession(ctx context.Context, ref string) (*payments.Payment, error) {
	return g.retrieve(ctx, ref)
}

func (g *Gateway) CancelIntent(ctx context.Context, ref string) error {
	return g.cancel(ctx, ref)
}

func (g *Gateway) ExpireSession(ctx context.Context, ref string) error {
	return g.cancel(ctx, ref)
}

// cancel fails for payments that already succeeded, like the real provider.
func (g *Gateway) cancel(ctx context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := g.payments[ref]
	if !ok {
		return fmt.Errorf("no such payment: %s", ref)
	}
	if p.Status == payments.StatusSucceeded {
		return fmt.Errorf("payment %s already succeeded", ref)
	}
	p.Status = payments.StatusFailed
	return nil
}

func (g *Gateway) create(ctx context.Context, prefix string, order payments.Order) (*payments.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CreateCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	ref := fmt.Sprintf("%s_test_%d", prefix, g.seq)
	p := &payments.Payment{Ref: ref, Status: payments.StatusPending}
	if prefix == "pi" {
		p.ClientSecret = ref + "_secret"
	} else {
		p.CheckoutURL = "https://checkout.test/" + ref
	}
	g.payments[ref] = p
	g.orders[ref] = order
	cp := *p
	return &cp, nil
}

func (g *Gateway) retrieve(ctx context.Context, ref string) (*payments.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.RetrieveCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	p, ok := g.payments[ref]
	if !ok {
		return nil, fmt.Errorf("no such payment: %s", ref)
	}
	cp := *p
	return &cp, nil
}

type eventPayload struct {
	ID     string               `json:"id"`
	Type   payments.EventType   `json:"type"`
	Ref    string               `json:"ref"`
	Method models.PaymentMethod `json:"method"`
}

// EventPayload builds a webhook body the fake can parse.
func EventPayload(typ payments.EventType, ref string, method models.PaymentMethod) []byte {
	b, _ := json.Marshal(eventPayload{ID: "evt_" + ref, Type: typ, Ref: ref, Method: method})
	return b
}

func (g *Gateway) ParseEvent(payload []byte, signature string) (*payments.Event, error) {
	if signature != Signature {
		return nil, payments.ErrInvalidSignature
	}
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &payments.Event{ID: p.ID, Type: p.Type, Ref: p.Ref, Method: p.Method}, nil
}

var _ payments.Gateway = (*Gateway)(nil)
