package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutCreator is the part of the Stripe client used to open checkout sessions.
type CheckoutCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type PaymentService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Emails        *EmailService
	Checkout      CheckoutCreator
	Config        config.StripeConfig
	BaseURL       string
}

func NewPaymentService(db *gorm.DB, n *NotificationService, e *EmailService, cfg config.StripeConfig, baseURL string) *PaymentService {
	s := &PaymentService{DB: db, Notifications: n, Emails: e, Config: cfg, BaseURL: strings.TrimRight(baseURL, "/")}
	if cfg.Enabled() {
		sc := client.New(cfg.SecretKey, nil)
		s.Checkout = sc.CheckoutSessions
	}
	return s
}

// CreateCheckout opens a subscription checkout for plan and returns its URL.
func (s *PaymentService) CreateCheckout(p *models.Profile, plan string) (string, error) {
	if s.Checkout == nil {
		return "", fmt.Errorf("%w: payments are not configured", ErrNotConfigured)
	}
	plan = strings.ToLower(strings.TrimSpace(plan))
	priceID, ok := s.Config.Plans[plan]
	if !ok {
		return "", invalid("unknown plan %q", plan)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.BaseURL + "/billing?status=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.BaseURL + "/billing?status=cancelled"),
		ClientReferenceID: stripe.String(p.ID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"profileId": p.ID, "plan": plan},
		},
	}
	if p.StripeCustomerID != "" {
		params.Customer = stripe.String(p.StripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(p.Email)
	}
	params.AddMetadata("profileId", p.ID)
	params.AddMetadata("plan", plan)

	sess, err := s.Checkout.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

type SubscriptionOverview struct {
	Subscription *models.Subscription `json:"subscription"`
	Invoices     []models.Invoice     `json:"invoices"`
}

func (s *PaymentService) Overview(profileID string) (*SubscriptionOverview, error) {
	out := &SubscriptionOverview{}
	var sub models.Subscription
	err := s.DB.Where("user_id = ?", profileID).First(&sub).Error
	switch {
	case err == nil:
		out.Subscription = &sub
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	if err := s.DB.Where("user_id = ?", profileID).Order("created_at DESC").Limit(24).Find(&out.Invoices).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// HandleWebhook verifies the signature and applies the event. Unknown event types are ignored.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) error {
	if s.Config.WebhookSecret == "" {
		return fmt.Errorf("%w: webhook secret missing", ErrNotConfigured)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.Config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return invalid("webhook signature verification failed")
	}

	log.Printf("💳 Stripe event %s (%s)", event.Type, event.ID)
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return invalid("malformed checkout session")
		}
		return s.checkoutCompleted(&sess)
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return invalid("malformed subscription")
		}
		return s.subscriptionChanged(&sub)
	case "invoice.paid", "invoice.payment_succeeded":
		return s.invoiceEvent(event, true)
	case "invoice.payment_failed":
		return s.invoiceEvent(event, false)
	}
	return nil
}

func (s *PaymentService) invoiceEvent(event stripe.Event, paid bool) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return invalid("malformed invoice")
	}
	return s.invoiceChanged(&inv, paid)
}

func (s *PaymentService) checkoutCompleted(sess *stripe.CheckoutSession) error {
	profileID := sess.ClientReferenceID
	if profileID == "" {
		profileID = sess.Metadata["profileId"]
	}
	var profile models.Profile
	if err := s.DB.Where("id = ?", profileID).First(&profile).Error; err != nil {
		log.Printf("⚠️  Checkout %s has no matching profile (%q)", sess.ID, profileID)
		return nil
	}
	plan := sess.Metadata["plan"]

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		if customerID != "" && profile.StripeCustomerID != customerID {
			if err := tx.Model(&profile).Update("stripe_customer_id", customerID).Error; err != nil {
				return err
			}
		}

		payment := models.Payment{
			UserID:          profile.ID,
			StripeSessionID: sess.ID,
			Amount:          sess.AmountTotal,
			Currency:        string(sess.Currency),
			Status:          string(sess.PaymentStatus),
			Plan:            plan,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "amount", "updated_at"}),
		}).Create(&payment).Error; err != nil {
			return err
		}

		if sess.Subscription == nil || sess.Subscription.ID == "" {
			return nil
		}
		sub := models.Subscription{
			UserID:               profile.ID,
			StripeCustomerID:     customerID,
			StripeSubscriptionID: sess.Subscription.ID,
			Plan:                 plan,
			Status:               string(stripe.SubscriptionStatusActive),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stripe_customer_id", "stripe_subscription_id", "plan", "status", "updated_at"}),
		}).Create(&sub).Error
	})
	if err != nil {
		return err
	}

	s.Notifications.Notify(NotificationInput{
		UserID:  profile.ID,
		Type:    models.NotifySubscription,
		Title:   "Subscription active",
		Message: fmt.Sprintf("Your %s plan is now active.", orDefault(plan, "new")),
		Link:    "/billing",
	})
	s.Emails.SendAsync(profile.Email, profile.FullName, "Your CampusHire subscription is active",
		"Thanks for subscribing", fmt.Sprintf("Your %s plan is now active.", orDefault(plan, "new")), "/billing")
	return nil
}

// subscriptionRow finds the row an event for sub applies to. A profile keeps one row, so a new
// subscription id takes over the profile's row. A nil row means the event is stale and skipped.
func (s *PaymentService) subscriptionRow(sub *stripe.Subscription) (*models.Subscription, error) {
	var existing models.Subscription
	err := s.DB.Where("stripe_subscription_id = ?", sub.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profileID := sub.Metadata["profileId"]
	if profileID == "" {
		log.Printf("⚠️  Subscription %s is not linked to a profile", sub.ID)
		return nil, nil
	}
	err = s.DB.Where("user_id = ?", profileID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Subscription{UserID: profileID, StripeSubscriptionID: sub.ID, Plan: sub.Metadata["plan"]}, nil
	}
	if err != nil {
		return nil, err
	}

	// The profile already moved on to another subscription.
	if ended(sub.Status) {
		log.Printf("Ignoring %s event for replaced subscription %s", sub.Status, sub.ID)
		return nil, nil
	}
	existing.StripeSubscriptionID = sub.ID
	if plan := sub.Metadata["plan"]; plan != "" {
		existing.Plan = plan
	}
	return &existing, nil
}

func ended(status stripe.SubscriptionStatus) bool {
	return status == stripe.SubscriptionStatusCanceled || status == stripe.SubscriptionStatusIncompleteExpired
}

func (s *PaymentService) subscriptionChanged(sub *stripe.Subscription) error {
	existing, err := s.subscriptionRow(sub)
	if err != nil || existing == nil {
		return err
	}

	existing.Status = string(sub.Status)
	existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		existing.CurrentPeriodEnd = &end
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		existing.StripeCustomerID = sub.Customer.ID
	}
	if err := s.DB.Save(existing).Error; err != nil {
		return err
	}

	if sub.Status == stripe.SubscriptionStatusCanceled {
		s.Notifications.Notify(NotificationInput{
			UserID:  existing.UserID,
			Type:    models.NotifySubscription,
			Title:   "Subscription cancelled",
			Message: "Your subscription has ended.",
			Link:    "/billing",
		})
	}
	return nil
}

func (s *PaymentService) invoiceChanged(inv *stripe.Invoice, paid bool) error {
	profile, err := s.profileForInvoice(inv)
	if err != nil {
		return err
	}
	if profile == nil {
		log.Printf("⚠️  Invoice %s is not linked to a profile", inv.ID)
		return nil
	}

	subID := ""
	if inv.Subscription != nil {
		subID = inv.Subscription.ID
	}
	row := models.Invoice{
		UserID:               profile.ID,
		StripeInvoiceID:      inv.ID,
		StripeSubscriptionID: subID,
		AmountPaid:           inv.AmountPaid,
		Currency:             string(inv.Currency),
		Status:               string(inv.Status),
		HostedInvoiceURL:     inv.HostedInvoiceURL,
	}
	if !paid {
		row.Status = "payment_failed"
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount_paid", "status", "hosted_invoice_url", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	amount := fmt.Sprintf("%.2f %s", float64(inv.AmountPaid)/100, strings.ToUpper(string(inv.Currency)))
	if paid {
		s.Notifications.Notify(NotificationInput{
			UserID:  profile.ID,
			Type:    models.NotifyPaymentSucceeded,
			Title:   "Payment received",
			Message: "We received your payment of " + amount + ".",
			Link:    "/billing",
			Data:    map[string]any{"invoiceId": inv.ID},
		})
		return nil
	}
	s.Notifications.Notify(NotificationInput{
		UserID:  profile.ID,
		Type:    models.NotifyPaymentFailed,
		Title:   "Payment failed",
		Message: "Your latest payment failed. Please update your payment method.",
		Link:    "/billing",
		Data:    map[string]any{"invoiceId": inv.ID},
	})
	s.Emails.SendAsync(profile.Email, profile.FullName, "Your CampusHire payment failed",
		"Payment failed", "Your latest payment failed. Please update your payment method.", "/billing")
	return nil
}

// profileForInvoice resolves the owner via the subscription first, then the customer id.
func (s *PaymentService) profileForInvoice(inv *stripe.Invoice) (*models.Profile, error) {
	var profile models.Profile
	if inv.Subscription != nil && inv.Subscription.ID != "" {
		var sub models.Subscription
		err := s.DB.Where("stripe_subscription_id = ?", inv.Subscription.ID).First(&sub).Error
		if err == nil {
			if err := s.DB.Where("id = ?", sub.UserID).First(&profile).Error; err == nil {
				return &profile, nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if inv.Customer != nil && inv.Customer.ID != "" {
		err := s.DB.Where("stripe_customer_id = ?", inv.Customer.ID).First(&profile).Error
		if err == nil {
			return &profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
