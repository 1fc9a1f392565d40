package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/database/dbtest"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

type fakeCheckout struct {
	params *stripe.CheckoutSessionParams
}

func (f *fakeCheckout) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
}

func newPaymentService(t *testing.T) (*PaymentService, *gorm.DB, *fakeMailer) {
	db := dbtest.New(t)
	mailer := &fakeMailer{}
	emails := NewEmailService(mailer, "https://campus.test")
	t.Cleanup(emails.Wait)
	cfg := config.StripeConfig{WebhookSecret: testWebhookSecret, Plans: map[string]string{"pro": "price_pro"}}
	svc := NewPaymentService(db, NewNotificationService(db), emails, cfg, "https://campus.test")
	return svc, db, mailer
}

func signPayload(payload string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func event(eventType, object string) string {
	return fmt.Sprintf(`{"id":"evt_%d","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		time.Now().UnixNano(), stripe.APIVersion, eventType, object)
}

func TestCreateCheckout(t *testing.T) {
	svc, db, _ := newPaymentService(t)
	_, profile := dbtest.User(t, db, "ada", models.RoleSeeker)

	_, err := svc.CreateCheckout(profile, "pro")
	assert.ErrorIs(t, err, ErrNotConfigured)

	fake := &fakeCheckout{}
	svc.Checkout = fake

	_, err = svc.CreateCheckout(profile, "platinum")
	assert.ErrorIs(t, err, ErrValidation)

	url, err := svc.CreateCheckout(profile, " PRO ")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_1", url)
	assert.Equal(t, "price_pro", *fake.params.LineItems[0].Price)
	assert.Equal(t, profile.ID, *fake.params.ClientReferenceID)
	assert.Equal(t, profile.Email, *fake.params.CustomerEmail)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _ := newPaymentService(t)
	payload := event("invoice.paid", `{"id":"in_1"}`)

	err := svc.HandleWebhook([]byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	svc, db, mailer := newPaymentService(t)
	_, profile := dbtest.User(t, db, "ada", models.RoleSeeker)

	checkout := event("checkout.session.completed", fmt.Sprintf(
		`{"id":"cs_1","object":"checkout.session","client_reference_id":%q,"customer":"cus_1","subscription":"sub_1","amount_total":900,"currency":"usd","payment_status":"paid","metadata":{"plan":"pro"}}`,
		profile.ID))
	require.NoError(t, svc.HandleWebhook([]byte(checkout), signPayload(checkout)))

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ?", profile.ID).First(&sub).Error)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, "pro", sub.Plan)

	var payment models.Payment
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_1").First(&payment).Error)
	assert.Equal(t, int64(900), payment.Amount)

	var reloaded models.Profile
	require.NoError(t, db.First(&reloaded, "id = ?", profile.ID).Error)
	assert.Equal(t, "cus_1", reloaded.StripeCustomerID)

	// redelivery of the same event does not create duplicates
	require.NoError(t, svc.HandleWebhook([]byte(checkout), signPayload(checkout)))
	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(1), count)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	updated := event("customer.subscription.updated", fmt.Sprintf(
		`{"id":"sub_1","object":"subscription","status":"past_due","cancel_at_period_end":true,"current_period_end":%d,"customer":"cus_1"}`, periodEnd))
	require.NoError(t, svc.HandleWebhook([]byte(updated), signPayload(updated)))
	require.NoError(t, db.Where("user_id = ?", profile.ID).First(&sub).Error)
	assert.Equal(t, "past_due", sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())

	paid := event("invoice.paid", `{"id":"in_1","object":"invoice","subscription":"sub_1","customer":"cus_1","amount_paid":900,"currency":"usd","status":"paid","hosted_invoice_url":"https://invoice.test/in_1"}`)
	require.NoError(t, svc.HandleWebhook([]byte(paid), signPayload(paid)))

	failed := event("invoice.payment_failed", `{"id":"in_2","object":"invoice","customer":"cus_1","amount_paid":0,"currency":"usd","status":"open"}`)
	require.NoError(t, svc.HandleWebhook([]byte(failed), signPayload(failed)))

	overview, err := svc.Overview(profile.ID)
	require.NoError(t, err)
	require.NotNil(t, overview.Subscription)
	assert.Len(t, overview.Invoices, 2)

	var types []string
	db.Model(&models.Notification{}).Where("user_id = ?", profile.ID).Pluck("type", &types)
	assert.ElementsMatch(t, []string{"SUBSCRIPTION_UPDATED", "SUBSCRIPTION_UPDATED", "PAYMENT_SUCCEEDED", "PAYMENT_FAILED"}, types)

	svc.Emails.Wait()
	assert.Len(t, mailer.messages(), 3)
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	svc, _, _ := newPaymentService(t)
	payload := event("charge.refunded", `{"id":"ch_1"}`)
	assert.NoError(t, svc.HandleWebhook([]byte(payload), signPayload(payload)))
}

func TestWebhookResubscribeReusesProfileRow(t *testing.T) {
	svc, db, _ := newPaymentService(t)
	_, profile := dbtest.User(t, db, "ada", models.RoleSeeker)
	require.NoError(t, db.Create(&models.Subscription{UserID: profile.ID, StripeSubscriptionID: "sub_old", Status: "canceled"}).Error)

	created := event("customer.subscription.created", fmt.Sprintf(
		`{"id":"sub_new","object":"subscription","status":"active","customer":"cus_1","metadata":{"profileId":%q,"plan":"pro"}}`, profile.ID))
	require.NoError(t, svc.HandleWebhook([]byte(created), signPayload(created)))

	var subs []models.Subscription
	require.NoError(t, db.Where("user_id = ?", profile.ID).Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_new", subs[0].StripeSubscriptionID)
	assert.Equal(t, "active", subs[0].Status)
	assert.Equal(t, "pro", subs[0].Plan)

	late := event("customer.subscription.deleted", fmt.Sprintf(
		`{"id":"sub_old","object":"subscription","status":"canceled","customer":"cus_1","metadata":{"profileId":%q}}`, profile.ID))
	require.NoError(t, svc.HandleWebhook([]byte(late), signPayload(late)))

	require.NoError(t, db.Where("user_id = ?", profile.ID).Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_new", subs[0].StripeSubscriptionID)
	assert.Equal(t, "active", subs[0].Status)
}
