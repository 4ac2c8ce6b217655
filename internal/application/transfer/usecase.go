package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	domacc "github.com/Zhima-Mochi/simplepay/internal/domain/account"
	domtx "github.com/Zhima-Mochi/simplepay/internal/domain/transfer"
	"github.com/Zhima-Mochi/simplepay/internal/observability"
	"github.com/Zhima-Mochi/simplepay/internal/observability/logctx"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	useCaseTransfer  = "transfer.execute"
	transferSpanName = "UC.Transfer"

	// maxBalanceAttempts bounds compare-and-set retries against concurrent
	// mutations of the same account.
	maxBalanceAttempts = 3
)

type TransferInput struct {
	Amount    decimal.Decimal
	PayerID   int64
	PayerKind domacc.Kind
	PayeeID   int64
	PayeeKind domacc.Kind
}

type TransferResult struct {
	TransactionID string
	Status        domtx.Status
}

// UseCase is the funds-transfer orchestrator: it resolves both parties,
// enforces the business rules, asks the external gateway for approval,
// moves the balances, and writes the audit ledger.
type UseCase struct {
	accounts   domacc.Repository
	ledger     domtx.Ledger
	authorizer Authorizer
	notifier   Notifier
	ids        IDGenerator
	tel        observability.Telemetry

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewUseCase(
	accounts domacc.Repository,
	ledger domtx.Ledger,
	authorizer Authorizer,
	notifier Notifier,
	ids IDGenerator,
	tel observability.Telemetry,
) *UseCase {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &UseCase{
		accounts:     accounts,
		ledger:       ledger,
		authorizer:   authorizer,
		notifier:     notifier,
		ids:          ids,
		tel:          tel,
		log:          tel.Logger().With(observability.F("use_case", useCaseTransfer)),
		reqCounter:   tel.Counter("usecase_requests_total"),
		durHistogram: tel.Histogram("usecase_duration_seconds"),
	}
}

// Execute runs one transfer. Every validation step short-circuits before any
// state is touched; balances and ledger are only mutated after the gateway
// approves. Calling Execute twice with the same input produces two
// independent transactions.
func (uc *UseCase) Execute(ctx context.Context, in TransferInput) (_ *TransferResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("payer_id", in.PayerID),
		observability.F("payer_kind", string(in.PayerKind)),
		observability.F("payee_id", in.PayeeID),
		observability.F("payee_kind", string(in.PayeeKind)),
		observability.F("amount", in.Amount.String()),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, transferSpanName,
		attribute.String("use_case", useCaseTransfer),
		attribute.Int64("transfer.payer_id", in.PayerID),
		attribute.Int64("transfer.payee_id", in.PayeeID),
		attribute.String("transfer.amount", in.Amount.String()),
	)

	start := time.Now()
	outcome, statusText := "success", "OK"
	var txID string

	defer func() {
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseTransfer),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(latency,
			observability.L("use_case", useCaseTransfer),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		if txID != "" {
			fields = append(fields, observability.F("transaction_id", txID))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	// 1. Kind presence.
	if !in.PayerKind.Valid() || !in.PayeeKind.Valid() {
		outcome, statusText = "error", "KIND_REQUIRED"
		return nil, domtx.ErrMissingKind
	}
	if validateErr := domtx.ValidateAmount(in.Amount); validateErr != nil {
		outcome, statusText = "error", "AMOUNT_INVALID"
		return nil, validateErr
	}

	// 2. Party resolution. Both parties are looked up before either missing
	// party is reported; the payer failure takes precedence. A store failure
	// is not a missing party and surfaces as-is.
	payer, payerErr := uc.accounts.Find(ctx, in.PayerID, in.PayerKind)
	payee, payeeErr := uc.accounts.Find(ctx, in.PayeeID, in.PayeeKind)
	if payerErr != nil && !errors.Is(payerErr, domacc.ErrNotFound) {
		outcome, statusText = "error", "ACCOUNT_LOOKUP_FAILED"
		return nil, fmt.Errorf("transfer: resolve payer: %w", payerErr)
	}
	if payeeErr != nil && !errors.Is(payeeErr, domacc.ErrNotFound) {
		outcome, statusText = "error", "ACCOUNT_LOOKUP_FAILED"
		return nil, fmt.Errorf("transfer: resolve payee: %w", payeeErr)
	}
	if payerErr != nil {
		outcome, statusText = "error", "PAYER_NOT_FOUND"
		return nil, domtx.ErrPayerNotFound
	}
	if payeeErr != nil {
		outcome, statusText = "error", "PAYEE_NOT_FOUND"
		return nil, domtx.ErrPayeeNotFound
	}

	// 3. Sellers may only receive.
	if in.PayerKind == domacc.KindSeller {
		outcome, statusText = "error", "SELLER_PAYER"
		return nil, domtx.ErrSellerPayer
	}

	// 4. Balance check, exact decimal comparison.
	if !payer.HasBalance(in.Amount) {
		outcome, statusText = "error", "INSUFFICIENT_BALANCE"
		return nil, domacc.ErrInsufficientBalance
	}

	// 5. External authorization. Runs only after local validation so invalid
	// requests never spend the external call budget.
	if authErr := uc.authorizer.Authorize(ctx); authErr != nil {
		outcome, statusText = "error", "AUTHORIZATION_DENIED"
		return nil, fmt.Errorf("%w: %v", domtx.ErrAuthorizationDenied, authErr)
	}

	// 6. Balance mutation, debit before credit.
	if err = uc.moveFunds(ctx, payer, payee, in.Amount); err != nil {
		if errors.Is(err, domacc.ErrInsufficientBalance) {
			outcome, statusText = "error", "INSUFFICIENT_BALANCE"
			return nil, err
		}
		outcome, statusText = "error", "BALANCE_UPDATE_FAILED"
		return nil, err
	}

	// 7. Ledger write: PENDING with its first history entry, then SUCCESS
	// with the second.
	tx, txErr := domtx.New(uc.ids.NewID(), in.Amount, in.PayerID, in.PayerKind, in.PayeeID, in.PayeeKind)
	if txErr != nil {
		outcome, statusText = "error", "TRANSACTION_INVALID"
		return nil, txErr
	}
	if err = uc.ledger.Create(ctx, tx); err != nil {
		outcome, statusText = "error", "LEDGER_WRITE_FAILED"
		uc.reverseFunds(ctx, logger, payer, payee, in.Amount)
		return nil, fmt.Errorf("transfer: ledger create: %w", err)
	}
	if err = uc.ledger.MarkSucceeded(ctx, tx); err != nil {
		outcome, statusText = "error", "LEDGER_WRITE_FAILED"
		uc.reverseFunds(ctx, logger, payer, payee, in.Amount)
		return nil, fmt.Errorf("transfer: ledger finalize: %w", err)
	}
	txID = tx.ID

	// 8. Best-effort notification. Failures are logged and swallowed.
	uc.notifyPayee(ctx, logger, payee, in.Amount)

	return &TransferResult{TransactionID: tx.ID, Status: tx.Status}, nil
}

// moveFunds debits the payer, then credits the payee. Both writes go through
// the store's compare-and-set update and are retried on version conflict;
// when the credit cannot be applied after the debit went through, the debit
// is compensated with a credit back to the payer.
func (uc *UseCase) moveFunds(ctx context.Context, payer, payee *domacc.Account, amount decimal.Decimal) error {
	if err := uc.applyDebit(ctx, payer, amount); err != nil {
		return err
	}

	if err := uc.applyCredit(ctx, payee.ID, payee.Kind, amount); err != nil {
		logger := logctx.FromOr(ctx, uc.log)
		logger.Error("credit_failed_compensating",
			observability.F("payee_id", payee.ID),
			observability.F("error", err.Error()),
		)
		if compErr := uc.applyCredit(ctx, payer.ID, payer.Kind, amount); compErr != nil {
			logger.Error("compensation_failed",
				observability.F("payer_id", payer.ID),
				observability.F("error", compErr.Error()),
			)
			return fmt.Errorf("transfer: credit failed and compensation failed: %w", compErr)
		}
		return fmt.Errorf("transfer: credit payee: %w", err)
	}

	return nil
}

// reverseFunds undoes a committed balance movement when the audit record
// cannot be written: the payee is debited back and the payer re-credited.
// Best effort; failures are logged, the original ledger error still wins.
func (uc *UseCase) reverseFunds(ctx context.Context, logger observability.Logger, payer, payee *domacc.Account, amount decimal.Decimal) {
	fresh, err := uc.accounts.Find(ctx, payee.ID, payee.Kind)
	if err == nil {
		err = uc.applyDebit(ctx, fresh, amount)
	}
	if err != nil {
		logger.Error("ledger_reversal_debit_failed",
			observability.F("payee_id", payee.ID),
			observability.F("error", err.Error()),
		)
		return
	}

	if err := uc.applyCredit(ctx, payer.ID, payer.Kind, amount); err != nil {
		logger.Error("ledger_reversal_credit_failed",
			observability.F("payer_id", payer.ID),
			observability.F("error", err.Error()),
		)
	}
}

func (uc *UseCase) applyDebit(ctx context.Context, payer *domacc.Account, amount decimal.Decimal) error {
	current := payer
	for attempt := 0; ; attempt++ {
		if err := current.Debit(amount); err != nil {
			return err
		}

		err := uc.accounts.Update(ctx, current)
		if err == nil {
			*payer = *current
			return nil
		}
		if !errors.Is(err, domacc.ErrVersionConflict) || attempt+1 >= maxBalanceAttempts {
			return fmt.Errorf("transfer: debit payer: %w", err)
		}

		// Stale write: re-resolve and re-check the balance before retrying.
		fresh, findErr := uc.accounts.Find(ctx, payer.ID, payer.Kind)
		if findErr != nil {
			return fmt.Errorf("transfer: debit payer: %w", findErr)
		}
		current = fresh
	}
}

func (uc *UseCase) applyCredit(ctx context.Context, id int64, kind domacc.Kind, amount decimal.Decimal) error {
	for attempt := 0; ; attempt++ {
		acc, err := uc.accounts.Find(ctx, id, kind)
		if err != nil {
			return err
		}
		if err := acc.Credit(amount); err != nil {
			return err
		}

		err = uc.accounts.Update(ctx, acc)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domacc.ErrVersionConflict) || attempt+1 >= maxBalanceAttempts {
			return err
		}
	}
}

func (uc *UseCase) notifyPayee(ctx context.Context, logger observability.Logger, payee *domacc.Account, amount decimal.Decimal) {
	message := fmt.Sprintf("You received a transfer of %s", amount.StringFixed(2))
	if err := uc.notifier.Notify(ctx, payee.Email, message); err != nil {
		logger.Warn("payee_notification_failed",
			observability.F("payee_id", payee.ID),
			observability.F("error", err.Error()),
		)
	}
}
