package checkout_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Kariqs/artcorner-api/apiclient"
	"github.com/Kariqs/artcorner-api/apiclient/apitest"
	"github.com/Kariqs/artcorner-api/cartstore"
	"github.com/Kariqs/artcorner-api/checkout"
	"github.com/Kariqs/artcorner-api/snapshot"
	"github.com/stretchr/testify/require"
)

const userID = "u1"

const (
	routeGetCart    = "GET /api/cart/:userId"
	routeSession    = "POST /api/payment/create-checkout-session"
	routePaySuccess = "POST /api/payment/payment-success"
	routeDirect     = "POST /api/orders/:userId"
)

type redirectRecorder struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (r *redirectRecorder) Redirect(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.urls = append(r.urls, url)
	return nil
}

func (r *redirectRecorder) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

type fixture struct {
	server    *apitest.Server
	client    *apiclient.Client
	cart      *cartstore.Store
	snapshots snapshot.Repository
	redirects *redirectRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := apitest.NewServer(t)
	server.AddProduct(apiclient.Product{ID: "a", Name: "Night Garden", Price: 10, Quantity: 5})
	server.AddProduct(apiclient.Product{ID: "b", Name: "Harbour Study", Price: 24.99, Quantity: 1})
	server.AddEvent(apiclient.Product{ID: "e", Name: "Ink Workshop", Price: 15, Capacity: 10})

	repo, err := snapshot.NewFileRepository(t.TempDir())
	require.NoError(t, err)

	client := apiclient.New(server.URL)
	return &fixture{
		server:    server,
		client:    client,
		cart:      cartstore.New(client, userID),
		snapshots: repo,
		redirects: &redirectRecorder{},
	}
}

func (f *fixture) orchestrator(opts ...checkout.Option) *checkout.Orchestrator {
	return checkout.New(f.cart, f.client, f.snapshots, f.redirects, opts...)
}

// reload simulates the buyer coming back from the payment page in a new process.
func (f *fixture) reload(opts ...checkout.Option) *checkout.Orchestrator {
	f.cart = cartstore.New(f.client, userID)
	return f.orchestrator(opts...)
}

func (f *fixture) fill(t *testing.T, lines map[string]int) {
	t.Helper()
	for id, quantity := range lines {
		f.server.PutInCart(userID, id, quantity)
	}
	require.NoError(t, f.cart.Refresh(context.Background()))
}

func (f *fixture) pending(t *testing.T) (snapshot.PendingOrder, error) {
	t.Helper()
	return f.snapshots.Load(context.Background(), userID)
}

func shippingForm(paymentMethod string) checkout.Form {
	return checkout.Form{
		PaymentMethod: paymentMethod,
		Email:         "ada@example.com",
		Delivery: checkout.Delivery{
			Method:     checkout.DeliveryShipping,
			FullName:   "Ada Lovelace",
			Phone:      "+44 20 7946 0000",
			Address:    "12 St James's Square",
			City:       "London",
			PostalCode: "SW1Y 4JH",
		},
	}
}
