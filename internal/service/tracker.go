package service

import "frontend/internal/models"

type StepStatus string

const (
	StepComplete StepStatus = "complete"
	StepCurrent  StepStatus = "current"
	StepPending  StepStatus = "pending"
)

// TrackerStep is one stage of the escrow payment flow.
type TrackerStep struct {
	ID     int
	Label  string
	Status StepStatus
}

// Tracker describes escrow progress for display. Current runs from 1 to 4;
// 5 means every step is complete.
type Tracker struct {
	Current  int
	Steps    []TrackerStep
	Status   string
	Next     string
	Progress float64
	Complete bool
}

var trackerLabels = []string{"Deposit Escrow", "Seller Delivers", "QA Verification", "Release Payment"}

var trackerStatus = map[int]string{
	1: "Waiting for escrow deposit confirmation...",
	2: "Seller is preparing and delivering the dataset...",
	3: "Running automated quality verification checks...",
	4: "Processing payment release to seller...",
}

var trackerHints = map[int]string{
	1: " - Seller will be notified",
	2: " - Automated quality checks will run",
	3: " - Payment will auto-release if passed",
}

// BuildTracker lays out the four escrow steps around current.
func BuildTracker(current int) Tracker {
	total := len(trackerLabels)
	if current < 1 {
		current = 1
	}
	if current > total+1 {
		current = total + 1
	}

	t := Tracker{Current: current, Complete: current > total}
	for i, label := range trackerLabels {
		id := i + 1
		status := StepPending
		switch {
		case current > id:
			status = StepComplete
		case current == id:
			status = StepCurrent
		}
		t.Steps = append(t.Steps, TrackerStep{ID: id, Label: label, Status: status})
	}

	if t.Complete {
		t.Status = "Payment has been released and dataset access granted."
		t.Progress = 100
		return t
	}
	t.Status = trackerStatus[current]
	if current < total {
		t.Next = trackerLabels[current] + trackerHints[current]
	}
	t.Progress = float64(current-1) / float64(total-1) * 100
	return t
}

// TrackerStepFor places a backend transaction on the tracker.
func TrackerStepFor(tx *models.Transaction) int {
	if tx == nil {
		return 1
	}
	switch tx.Status {
	case models.StatusCompleted:
		if tx.EscrowReleased {
			return 5
		}
		return 4
	default:
		return 1
	}
}

type EscrowState string

const (
	EscrowLocked         EscrowState = "locked"
	EscrowPendingRelease EscrowState = "pending_release"
	EscrowReleased       EscrowState = "released"
	EscrowRefunded       EscrowState = "refunded"
)

func (s EscrowState) Title() string {
	switch s {
	case EscrowLocked:
		return "Funds Locked in Escrow"
	case EscrowPendingRelease:
		return "Pending Release"
	case EscrowReleased:
		return "Payment Released"
	case EscrowRefunded:
		return "Refunded"
	}
	return ""
}

func (s EscrowState) Description() string {
	switch s {
	case EscrowLocked:
		return "Payment secured until quality verification"
	case EscrowPendingRelease:
		return "Quality check passed. Awaiting final confirmation"
	case EscrowReleased:
		return "Funds successfully transferred to seller"
	case EscrowRefunded:
		return "Funds returned to buyer"
	}
	return ""
}

// EscrowFor derives the escrow state of a transaction.
func EscrowFor(tx *models.Transaction) EscrowState {
	if tx == nil {
		return EscrowLocked
	}
	switch tx.Status {
	case models.StatusFailed:
		return EscrowRefunded
	case models.StatusCompleted:
		if tx.EscrowReleased {
			return EscrowReleased
		}
		return EscrowPendingRelease
	default:
		return EscrowLocked
	}
}

// Banner is the headline shown for a transaction's status.
type Banner struct {
	Kind        string
	Title       string
	Description string
}

// TransactionBanner builds the status headline; a non-empty message
// replaces the default description.
func TransactionBanner(kind, message string) Banner {
	b := Banner{Kind: kind}
	switch kind {
	case "confirming":
		b.Title, b.Description = "Confirming Transaction", "Transaction submitted. Waiting for blockchain confirmation..."
	case "success":
		b.Title, b.Description = "Transaction Successful", "Your transaction has been confirmed on the blockchain!"
	case "failed":
		b.Title, b.Description = "Transaction Failed", "Transaction was rejected or failed. Please try again."
	default:
		b.Kind = "pending"
		b.Title, b.Description = "Transaction Pending", "Waiting for wallet confirmation..."
	}
	if message != "" {
		b.Description = message
	}
	return b
}

// BannerFor maps a backend transaction status to a banner kind.
func BannerFor(tx *models.Transaction) Banner {
	if tx == nil {
		return TransactionBanner("pending", "")
	}
	switch tx.Status {
	case models.StatusCompleted:
		return TransactionBanner("success", "")
	case models.StatusFailed:
		return TransactionBanner("failed", "")
	default:
		return TransactionBanner("confirming", "")
	}
}
