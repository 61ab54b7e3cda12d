// Package metrics reports ledger activity to a datadog agent over statsd.
package metrics

import (
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sampleRate = 1

// Recorder wraps a statsd client with the ledger's metric names.
// The zero value is not usable; use New or Nop.
type Recorder struct {
	client statsd.ClientInterface
	logger *zap.Logger
}

// New connects a buffered statsd client to addr. An empty addr returns Nop().
func New(addr, namespace string, logger *zap.Logger) (*Recorder, error) {
	if addr == "" {
		return Nop(), nil
	}
	client, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("connect statsd %s: %w", addr, err)
	}
	return NewWithClient(client, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client statsd.ClientInterface, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{client: client, logger: logger}
}

// Nop discards every metric.
func Nop() *Recorder {
	return NewWithClient(&statsd.NoOpClient{}, nil)
}

// Operation counts one ledger operation by name and outcome ("ok" or the error class).
func (r *Recorder) Operation(op, outcome string) {
	tags := []string{"op:" + op, "outcome:" + outcome}
	if err := r.client.Incr("ledger.operation", tags, sampleRate); err != nil {
		r.logger.Debug("statsd incr failed", zap.String("op", op), zap.Error(err))
	}
}

// Value records an amount moved by an operation, e.g. a withdrawal.
func (r *Recorder) Value(op string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	if err := r.client.Histogram("ledger.value", f, []string{"op:" + op}, sampleRate); err != nil {
		r.logger.Debug("statsd histogram failed", zap.String("op", op), zap.Error(err))
	}
}

// PendingCredits gauges the total of unclaimed credits.
func (r *Recorder) PendingCredits(total decimal.Decimal) {
	f, _ := total.Float64()
	if err := r.client.Gauge("ledger.pending_credits", f, nil, sampleRate); err != nil {
		r.logger.Debug("statsd gauge failed", zap.Error(err))
	}
}

// Close flushes and closes the underlying client.
func (r *Recorder) Close() error {
	return r.client.Close()
}
