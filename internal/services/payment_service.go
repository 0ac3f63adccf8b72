// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
	"github.com/javajoker/storefront-backend/internal/variants"
)

// PaymentGateway creates and reads card payment intents.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

type PaymentIntent struct {
	ID           string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// StripeGateway is the PaymentGateway backed by Stripe PaymentIntents.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	// Initialize Stripe
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	return &PaymentIntent{ID: pi.ID, Status: string(pi.Status)}, nil
}

type PaymentService struct {
	carts    *CartService
	products *ProductService
	orders   OrderRepository
	gateway  PaymentGateway
	notifier OrderNotifier
	config   *config.Config
	now      func() time.Time
}

type CheckoutRequest struct {
	PaymentMethod models.PaymentMethod   `json:"payment_method" validate:"required,oneof=cod card"`
	ShippingInfo  map[string]interface{} `json:"shipping_info" validate:"required"`
	Notes         string                 `json:"notes,omitempty" validate:"max=1000"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

// LineIssue describes a cart line the current snapshot can no longer fill.
type LineIssue struct {
	LineID    uuid.UUID `json:"line_id"`
	ProductID int64     `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
	Reason    string    `json:"reason"`
}

// CheckoutError lists the lines that blocked a checkout.
type CheckoutError struct {
	Issues []LineIssue
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("%d cart lines cannot be fulfilled", len(e.Issues))
}

func (e *CheckoutError) Unwrap() error {
	return ErrNotSatisfiable
}

func NewPaymentService(carts *CartService, products *ProductService, orders OrderRepository, gateway PaymentGateway, config *config.Config) *PaymentService {
	return &PaymentService{
		carts:    carts,
		products: products,
		orders:   orders,
		gateway:  gateway,
		config:   config,
		now:      time.Now,
	}
}

// SetNotifier registers who hears about confirmed orders. Nil disables
// notifications.
func (s *PaymentService) SetNotifier(n OrderNotifier) {
	s.notifier = n
}

// Checkout re-validates the cart against the current snapshot, records an
// order and, for card payments, opens a payment intent. Stock is checked but
// not decremented; the catalog owner remains the inventory authority.
func (s *PaymentService) Checkout(ctx context.Context, sessionID uuid.UUID, req *CheckoutRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.PaymentMethod == models.PaymentMethodCOD && !s.config.Payment.EnableCOD {
		return nil, ErrPaymentMethod
	}
	if req.PaymentMethod == models.PaymentMethodCard && s.gateway == nil {
		return nil, ErrPaymentMethod
	}

	var order *models.Order
	err := s.carts.Settle(ctx, sessionID, func(view *CartView) error {
		if err := s.validateLines(ctx, view.Lines); err != nil {
			return err
		}

		order = &models.Order{
			BaseModel:     models.BaseModel{ID: uuid.New()},
			SessionID:     sessionID,
			Lines:         models.JSONB{"items": view.Lines},
			ItemCount:     view.TotalItems,
			Subtotal:      view.Subtotal,
			Currency:      view.Currency,
			PaymentMethod: req.PaymentMethod,
			Status:        models.OrderStatusPending,
			ShippingInfo:  models.JSONB(req.ShippingInfo),
			Notes:         req.Notes,
		}

		switch req.PaymentMethod {
		case models.PaymentMethodCOD:
			ref, err := utils.GenerateOrderReference()
			if err != nil {
				return fmt.Errorf("failed to generate order reference: %w", err)
			}
			now := s.now()
			order.PaymentReference = ref
			order.Status = models.OrderStatusConfirmed
			order.ProcessedAt = &now
		case models.PaymentMethodCard:
			pi, err := s.gateway.CreatePaymentIntent(ctx, utils.ToMinorUnits(view.Subtotal), view.Currency, map[string]string{
				"order_id":   order.ID.String(),
				"session_id": sessionID.String(),
			})
			if err != nil {
				logrus.WithError(err).WithField("order_id", order.ID).Error("Payment intent creation failed")
				return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
			}
			order.PaymentReference = pi.ID
			order.ClientSecret = pi.ClientSecret
		}

		if err := s.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"session_id":     sessionID,
		"payment_method": order.PaymentMethod,
		"subtotal":       order.Subtotal,
	}).Info("Order placed")

	if order.Status == models.OrderStatusConfirmed {
		s.notifyConfirmed(ctx, order)
	}
	return order, nil
}

// ConfirmPayment settles a card order of the session from the state of its
// payment intent.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID, orderID uuid.UUID, req *ConfirmPaymentRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetSessionOrder(ctx, sessionID, orderID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, ErrPaymentMethod
	}
	if order.PaymentMethod != models.PaymentMethodCard || order.PaymentReference != req.PaymentIntentID {
		return nil, ErrPaymentMethod
	}
	if order.Status != models.OrderStatusPending {
		return order, nil
	}

	pi, err := s.gateway.GetPaymentIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	switch stripe.PaymentIntentStatus(pi.Status) {
	case stripe.PaymentIntentStatusSucceeded:
		now := s.now()
		order.Status = models.OrderStatusConfirmed
		order.ProcessedAt = &now
	case stripe.PaymentIntentStatusCanceled:
		order.Status = models.OrderStatusFailed
	default:
		return order, nil
	}

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if order.Status == models.OrderStatusConfirmed {
		s.notifyConfirmed(ctx, order)
	}
	return order, nil
}

func (s *PaymentService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return order, nil
}

// GetSessionOrder returns an order only to the session that placed it.
func (s *PaymentService) GetSessionOrder(ctx context.Context, sessionID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SessionID != sessionID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *PaymentService) ListOrders(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	params = params.ClampPage()
	orders, total, err := s.orders.ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	result := utils.CreatePaginationResult(orders, total, params)
	return &result, nil
}

// notifyConfirmed never fails the order; a lost mail is only logged.
func (s *PaymentService) notifyConfirmed(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderConfirmed(ctx, order); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to send order confirmation")
	}
}

// validateLines checks every line against the current snapshot. Lines that
// share a stock bucket are checked together.
func (s *PaymentService) validateLines(ctx context.Context, lines []models.CartLine) error {
	var issues []LineIssue

	for _, line := range lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			issues = append(issues, LineIssue{LineID: line.ID, ProductID: line.ProductID, Requested: line.Quantity, Reason: "product_unavailable"})
			continue
		}
		if err != nil {
			return err
		}

		key := variants.ComputeCombinationKey(product, line.Selection)
		if !key.IsComplete() {
			issues = append(issues, LineIssue{LineID: line.ID, ProductID: line.ProductID, Requested: line.Quantity, Reason: "selection_stale"})
			continue
		}

		available := variants.ResolveStock(product, key)
		held := variants.InCartQuantity(product, key, lines)
		if !variants.IsQuantitySatisfiable(available, held, s.config.Shop.StockMaintained) {
			issues = append(issues, LineIssue{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
				Reason:    "insufficient_stock",
			})
		}
	}

	if len(issues) > 0 {
		return &CheckoutError{Issues: issues}
	}
	return nil
}
