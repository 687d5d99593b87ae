package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"frontend/internal/format"
	"frontend/internal/models"
)

// Step is a stage of the purchase wizard.
type Step string

const (
	StepLoading    Step = "loading"
	StepDetails    Step = "details"
	StepPayment    Step = "payment"
	StepProcessing Step = "processing"
	StepSuccess    Step = "success"
	StepError      Step = "error"
)

// PurchaseAPI is the part of the marketplace client the wizard drives.
type PurchaseAPI interface {
	GetDatasetMetadata(ctx context.Context, cid string) (*models.Dataset, error)
	InitiatePurchase(ctx context.Context, cid, buyer string, amount float64) (*models.PurchaseResult, error)
	CompletePayment(ctx context.Context, txID string, amount float64) (*models.PaymentResult, error)
}

// Wizard sequences one dataset purchase: load the listing, collect the
// buyer, open the escrow and confirm payment. Failures end in StepError;
// nothing is retried or compensated.
type Wizard struct {
	api   PurchaseAPI
	delay time.Duration

	Step        Step
	Dataset     *models.Dataset
	Buyer       string
	Amount      float64
	Transaction *models.Transaction
	Payment     *models.PaymentResult
	Message     string
	Err         error

	history []Step
}

// NewWizard starts a wizard in the loading step. delay is the pause between
// opening the escrow and confirming payment.
func NewWizard(api PurchaseAPI, delay time.Duration) *Wizard {
	return &Wizard{
		api:     api,
		delay:   delay,
		Step:    StepLoading,
		history: []Step{StepLoading},
	}
}

// Transitions returns every step the wizard has visited, in order.
func (w *Wizard) Transitions() []Step {
	return append([]Step(nil), w.history...)
}

func (w *Wizard) moveTo(step Step) {
	w.Step = step
	w.history = append(w.history, step)
}

func (w *Wizard) fail(message string, err error) error {
	w.Message = message
	w.Err = err
	w.moveTo(StepError)
	return err
}

// Free reports whether the loaded dataset can be downloaded without paying.
func (w *Wizard) Free() bool {
	return w.Dataset != nil && w.Dataset.Price == 0
}

// Load fetches the listing. Success moves to details, any failure to error.
func (w *Wizard) Load(ctx context.Context, cid string) error {
	if w.Step != StepLoading {
		return ErrInvalidStep
	}
	if strings.TrimSpace(cid) == "" {
		return w.fail("Dataset not found", errors.New("dataset id is empty"))
	}

	dataset, err := w.api.GetDatasetMetadata(ctx, cid)
	if err != nil {
		return w.fail("Dataset not found", err)
	}
	if dataset == nil {
		return w.fail("Dataset not found", fmt.Errorf("no metadata for %s", cid))
	}

	w.Dataset = dataset
	w.Amount = dataset.Price
	w.moveTo(StepDetails)
	return nil
}

// Begin records the buyer and opens the payment form.
func (w *Wizard) Begin(buyer string) error {
	if w.Step != StepDetails {
		return ErrInvalidStep
	}
	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return invalid("buyer", "Please enter your wallet address")
	}
	w.Buyer = buyer
	w.moveTo(StepPayment)
	return nil
}

// Pay validates the payment form, opens the escrow, waits the configured
// delay and confirms payment. Validation failures keep the wizard on the
// payment step; anything else ends it in error.
func (w *Wizard) Pay(ctx context.Context, amount float64, buyer string) error {
	if w.Step != StepPayment {
		return ErrInvalidStep
	}

	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return invalid("buyer", "Please enter a buyer address")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return invalid("amount", "Please enter a valid payment amount")
	}
	if !(amount >= w.Dataset.Price) {
		return invalid("amount", "Payment amount must be at least $"+strconv.FormatFloat(w.Dataset.Price, 'f', -1, 64))
	}
	w.Buyer = buyer
	w.Amount = amount
	w.moveTo(StepProcessing)

	purchase, err := w.api.InitiatePurchase(ctx, w.Dataset.CID, buyer, amount)
	if err != nil {
		return w.fail(format.ErrorMessage(err), err)
	}
	if purchase == nil || purchase.Transaction == nil {
		return w.fail("Failed to initiate purchase", ErrNoTransaction)
	}
	w.Transaction = purchase.Transaction

	if err := sleep(ctx, w.delay); err != nil {
		return w.fail(format.ErrorMessage(err), err)
	}

	payment, err := w.api.CompletePayment(ctx, purchase.Transaction.TxID, amount)
	if err != nil {
		return w.fail(format.ErrorMessage(err), err)
	}
	if payment == nil || !payment.AccessGranted {
		return w.fail("Payment verification failed", ErrPaymentRejected)
	}

	w.Payment = payment
	if payment.Transaction != nil {
		w.Transaction = payment.Transaction
	}
	w.moveTo(StepSuccess)
	return nil
}

// Retry returns from the error step to details, or to loading when the
// listing never loaded. Page handlers build a fresh wizard per request, so
// their "Try again" link is a new Load; Retry is for callers that keep one
// wizard across several actions.
func (w *Wizard) Retry() error {
	if w.Step != StepError {
		return ErrInvalidStep
	}
	w.Message = ""
	w.Err = nil
	if w.Dataset == nil {
		w.moveTo(StepLoading)
		return nil
	}
	w.moveTo(StepDetails)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
