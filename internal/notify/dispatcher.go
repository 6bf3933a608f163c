package notify

import (
	"context"
	"sync"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Sink delivers events to one channel
type Sink interface {
	Name() string
	Accepts(e Event) bool
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher fans events out to sinks without blocking the caller.
// Delivery failures are logged and counted, never returned.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher; timeout bounds each delivery
func NewDispatcher(timeout time.Duration, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, metrics: m}
}

func (d *Dispatcher) dispatch(e Event) {
	if d == nil {
		return
	}
	for _, s := range d.sinks {
		if !s.Accepts(e) {
			continue
		}
		d.wg.Add(1)
		go func(s Sink) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			err := s.Deliver(ctx, e)
			d.metrics.ObserveNotification(s.Name(), err)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"sink":   s.Name(),
					"kind":   e.Kind,
					"ref_id": e.RefID,
				}).WithError(err).Warn("Notification delivery failed")
			}
		}(s)
	}
}

// Wait blocks until in-flight deliveries finish
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) SendDepositPending(dep domain.Deposit) {
	d.dispatch(depositEvent(KindDepositPending, false, dep))
}

func (d *Dispatcher) SendDepositApproved(dep domain.Deposit) {
	d.dispatch(depositEvent(KindDepositApproved, false, dep))
}

func (d *Dispatcher) SendWithdrawalRequested(w domain.Withdrawal) {
	d.dispatch(withdrawalEvent(KindWithdrawalRequested, false, w, w.WalletAddress))
}

func (d *Dispatcher) SendWithdrawalApproved(w domain.Withdrawal) {
	d.dispatch(withdrawalEvent(KindWithdrawalApproved, false, w, w.WalletAddress))
}

func (d *Dispatcher) SendWithdrawalRejected(w domain.Withdrawal) {
	d.dispatch(withdrawalEvent(KindWithdrawalRejected, false, w, w.RejectionReason))
}

func (d *Dispatcher) SendWithdrawalCompleted(w domain.Withdrawal) {
	d.dispatch(withdrawalEvent(KindWithdrawalCompleted, false, w, w.TransactionHash))
}

func (d *Dispatcher) SendAdminDepositNotification(dep domain.Deposit) {
	d.dispatch(depositEvent(KindAdminDeposit, true, dep))
}

func (d *Dispatcher) SendAdminWithdrawalNotification(w domain.Withdrawal) {
	d.dispatch(withdrawalEvent(KindAdminWithdrawal, true, w, w.WalletAddress))
}
