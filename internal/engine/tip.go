package engine

import (
	"context"

	"go.uber.org/zap"
)

// SendTip moves amount rao from sender to recipient inside the off-chain
// ledger. The debit is an atomic conditional decrement, so an insufficient
// balance can never mutate either side. The recipient record is upserted on
// first credit.
func (e *Engine) SendTip(ctx context.Context, sender, recipient string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if sender == recipient {
		return ErrSelfTip
	}

	newSenderBalance, err := e.store.DebitBalance(ctx, sender, amount)
	if err != nil {
		// store.ErrInsufficientBalance passes through untouched
		return err
	}

	newRecipientBalance, err := e.store.CreditBalance(ctx, recipient, amount)
	if err != nil {
		// The debit already landed; credit the sender back rather than leave
		// the amount in limbo.
		if _, creditErr := e.store.CreditBalance(ctx, sender, amount); creditErr != nil {
			zap.L().Error("Failed to refund sender after credit failure",
				zap.String("sender", sender),
				zap.Int64("amount", amount),
				zap.Error(creditErr))
		}
		return err
	}

	// Audit write failures are logged, never rolled back: trail loss is
	// lower severity than balance inconsistency.
	if err := e.store.RecordTip(ctx, sender, recipient, amount); err != nil {
		zap.L().Error("Failed to record tip audit entry",
			zap.String("sender", sender),
			zap.String("recipient", recipient),
			zap.Int64("amount", amount),
			zap.Error(err))
	}

	zap.L().Info("Tip sent",
		zap.String("sender", sender),
		zap.String("recipient", recipient),
		zap.Int64("amount", amount),
		zap.Int64("sender_balance", newSenderBalance),
		zap.Int64("recipient_balance", newRecipientBalance))
	return nil
}
