package stripe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"papyrus/pkg/stripe"

	"github.com/stretchr/testify/assert"
)

func TestConstructEvent_ValidSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":20000,"payment_intent":"pi_1","metadata":{"order_id":"order-1"}}}}`)
	sig := stripe.SignPayload(payload, secret, time.Now())

	event, err := stripe.ConstructEvent(payload, sig, secret)
	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, stripe.EventCheckoutSessionCompleted, event.Type)
	assert.Equal(t, "cs_1", event.Data.Object.ID)
	assert.Equal(t, int64(20000), event.Data.Object.AmountTotal)
	assert.Equal(t, "pi_1", event.Data.Object.PaymentIntent)
	assert.Equal(t, "order-1", event.Data.Object.Metadata["order_id"])
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	sig := stripe.SignPayload(payload, secret, time.Now())

	tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"amount_total":1}}}`)
	_, err := stripe.ConstructEvent(tampered, sig, secret)
	assert.ErrorIs(t, err, stripe.ErrInvalidSignature)
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	sig := stripe.SignPayload(payload, "whsec_other", time.Now())

	_, err := stripe.ConstructEvent(payload, sig, "whsec_test")
	assert.ErrorIs(t, err, stripe.ErrInvalidSignature)
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	sig := stripe.SignPayload(payload, secret, time.Now().Add(-10*time.Minute))

	_, err := stripe.ConstructEvent(payload, sig, secret)
	assert.ErrorIs(t, err, stripe.ErrInvalidSignature)
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	for _, header := range []string{"", "t=abc,v1=def", "garbage", "v1=deadbeef"} {
		_, err := stripe.ConstructEvent(payload, header, "whsec_test")
		assert.ErrorIs(t, err, stripe.ErrInvalidSignature, "header %q", header)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "P1", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "10000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "order-1", r.PostForm.Get("metadata[order_id]"))
		assert.Equal(t, "https://shop.example/success", r.PostForm.Get("success_url"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_123","url":"https://pay.example/cs_123"}`))
	}))
	defer server.Close()

	client := stripe.NewClient("sk_test_123", stripe.WithBaseURL(server.URL))
	session, err := client.CreateCheckoutSession(context.Background(), stripe.CheckoutSessionParams{
		Currency: "usd",
		LineItems: []stripe.LineItem{
			{Name: "P1", UnitAmount: 10000, Quantity: 2},
		},
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cart",
		Metadata:   map[string]string{"order_id": "order-1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.example/cs_123", session.URL)
}

func TestCreateCheckoutSession_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client := stripe.NewClient("sk_test_123", stripe.WithBaseURL(server.URL))
	session, err := client.CreateCheckoutSession(context.Background(), stripe.CheckoutSessionParams{
		Currency:   "usd",
		LineItems:  []stripe.LineItem{{Name: "P1", UnitAmount: 100, Quantity: 1}},
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cart",
	})

	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "Your card was declined.")
}
