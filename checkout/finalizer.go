package checkout

import (
	"context"
	"errors"

	"github.com/Kariqs/artcorner-api/apiclient"
	"github.com/Kariqs/artcorner-api/cartstore"
	"github.com/Kariqs/artcorner-api/snapshot"
	"go.uber.org/zap"
)

// OrderAPI places orders on the server.
type OrderAPI interface {
	SubmitOrder(ctx context.Context, path string, req apiclient.OrderRequest) (*apiclient.Order, error)
}

// Finalizer turns a validated cart into an order. The cart is cleared only after the
// server confirms the order, and a pending snapshot is removed only after that.
type Finalizer struct {
	api       OrderAPI
	cart      *cartstore.Store
	snapshots snapshot.Repository
	key       string
	log       *zap.Logger
}

func NewFinalizer(api OrderAPI, cart *cartstore.Store, snapshots snapshot.Repository, key string, log *zap.Logger) *Finalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finalizer{api: api, cart: cart, snapshots: snapshots, key: key, log: log}
}

// Finalize posts payload to path. When the server rejects it, the cart is reloaded so
// it shows the server's stock, and the returned *apiclient.APIError carries the
// server's message. Cart and snapshot are kept on any error, including a failed reload.
func (f *Finalizer) Finalize(ctx context.Context, path string, payload apiclient.OrderRequest) (*apiclient.Order, error) {
	order, err := f.api.SubmitOrder(ctx, path, payload)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			f.log.Warn("Order rejected by server",
				zap.String("userId", payload.UserID), zap.Int("status", apiErr.Status), zap.String("error", apiErr.Message))
			if err := f.cart.Refresh(ctx); err != nil {
				f.log.Warn("Failed to reload cart after rejection", zap.String("userId", payload.UserID), zap.Error(err))
			}
		} else {
			f.log.Error("Failed to submit order", zap.String("userId", payload.UserID), zap.Error(err))
		}
		return nil, err
	}

	f.cart.Clear()

	if payload.PaymentMethod == PaymentOnline && f.snapshots != nil {
		// The order exists now; finish the cleanup even if the caller has gone.
		if err := f.snapshots.Clear(context.WithoutCancel(ctx), f.key); err != nil {
			f.log.Error("Failed to delete pending order", zap.String("orderId", order.ID), zap.Error(err))
		}
	}

	f.log.Info("Order placed",
		zap.String("orderId", order.ID), zap.String("userId", payload.UserID), zap.String("paymentMethod", payload.PaymentMethod))
	return order, nil
}
