package notify

import (
	"fmt"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/utils"
)

// Event kinds
const (
	KindDepositPending      = "deposit.pending"
	KindDepositApproved     = "deposit.approved"
	KindWithdrawalRequested = "withdrawal.requested"
	KindWithdrawalApproved  = "withdrawal.approved"
	KindWithdrawalRejected  = "withdrawal.rejected"
	KindWithdrawalCompleted = "withdrawal.completed"
	KindAdminDeposit        = "admin.deposit"
	KindAdminWithdrawal     = "admin.withdrawal"
)

// Event is the payload handed to every sink
type Event struct {
	Kind     string    `json:"kind"`
	Admin    bool      `json:"admin"` // Addressed to platform admins
	UserID   uint      `json:"userId"`
	Username string    `json:"username"`
	RefID    uint      `json:"refId"` // Deposit or withdrawal id
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
	Detail   string    `json:"detail,omitempty"` // Plan, wallet, reason or tx hash
	At       time.Time `json:"at"`
}

func depositEvent(kind string, admin bool, d domain.Deposit) Event {
	return Event{
		Kind:     kind,
		Admin:    admin,
		UserID:   d.UserID,
		Username: d.Username,
		RefID:    d.ID,
		Amount:   d.Amount,
		Currency: d.Currency,
		Status:   d.Status,
		Detail:   d.Plan,
		At:       time.Now().UTC(),
	}
}

func withdrawalEvent(kind string, admin bool, w domain.Withdrawal, detail string) Event {
	return Event{
		Kind:     kind,
		Admin:    admin,
		UserID:   w.UserID,
		Username: w.Username,
		RefID:    w.ID,
		Amount:   w.Amount,
		Currency: w.Currency,
		Status:   w.Status,
		Detail:   detail,
		At:       time.Now().UTC(),
	}
}

// Text renders a short human readable line
func (e Event) Text() string {
	amount := "$" + utils.FormatAmount(e.Amount)
	switch e.Kind {
	case KindDepositPending:
		return fmt.Sprintf("Your deposit #%d of %s (%s, %s) is pending review", e.RefID, amount, e.Currency, e.Detail)
	case KindDepositApproved:
		return fmt.Sprintf("Your deposit #%d of %s has been approved", e.RefID, amount)
	case KindWithdrawalRequested:
		return fmt.Sprintf("Withdrawal #%d of %s requested, confirm it twice to submit for review", e.RefID, amount)
	case KindWithdrawalApproved:
		return fmt.Sprintf("Your withdrawal #%d of %s has been approved", e.RefID, amount)
	case KindWithdrawalRejected:
		return fmt.Sprintf("Your withdrawal #%d of %s was rejected: %s", e.RefID, amount, e.Detail)
	case KindWithdrawalCompleted:
		return fmt.Sprintf("Your withdrawal #%d of %s was sent, tx %s", e.RefID, amount, e.Detail)
	case KindAdminDeposit:
		return fmt.Sprintf("New deposit #%d from %s: %s %s (%s) [%s]", e.RefID, e.Username, amount, e.Currency, e.Detail, e.Status)
	case KindAdminWithdrawal:
		return fmt.Sprintf("New withdrawal #%d from %s: %s %s to %s [%s]", e.RefID, e.Username, amount, e.Currency, e.Detail, e.Status)
	}
	return fmt.Sprintf("%s #%d %s", e.Kind, e.RefID, amount)
}
