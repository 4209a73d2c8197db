package sms

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleProvider simulates delivery by logging the message. It is the
// default provider and the fallback when a gateway rejects a send.
type ConsoleProvider struct {
	logger *zap.Logger
}

// NewConsoleProvider builds the console simulator.
func NewConsoleProvider(logger *zap.Logger) *ConsoleProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleProvider{logger: logger}
}

// Name identifies the provider.
func (p *ConsoleProvider) Name() string { return ProviderConsole }

// Send logs the message instead of delivering it.
func (p *ConsoleProvider) Send(_ context.Context, msg Message) error {
	p.logger.Info("sms simulated",
		zap.String("to", msg.To),
		zap.String("body", msg.Body),
	)
	return nil
}
