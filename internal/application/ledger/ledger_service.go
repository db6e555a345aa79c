package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService posts and reads double-entry journal entries
type LedgerService struct {
	runner *core.Runner
	logger *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(runner *core.Runner, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{runner: runner, logger: logger}
}

// CreateEntryCommand is a manual posting
type CreateEntryCommand struct {
	Type          ledger.EntryType  `json:"type" validate:"required"`
	DebitAccount  ledger.Account    `json:"debit_account" validate:"required"`
	CreditAccount ledger.Account    `json:"credit_account" validate:"required"`
	Amount        decimal.Decimal   `json:"amount" validate:"gt=0"`
	Description   string            `json:"description" validate:"max=500"`
	Reference     *shared.Reference `json:"reference"`
	Date          *time.Time        `json:"date"`
}

// CreateEntry validates and persists one entry in its own transaction
func (s *LedgerService) CreateEntry(ctx context.Context, cmd CreateEntryCommand, userID uuid.UUID) (*ledger.Entry, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	req := ledger.PostingRequest{
		Type:          cmd.Type,
		DebitAccount:  cmd.DebitAccount,
		CreditAccount: cmd.CreditAccount,
		Amount:        cmd.Amount,
		Description:   cmd.Description,
		CreatedBy:     userID,
	}
	if cmd.Reference != nil {
		req.Reference = *cmd.Reference
	}
	if cmd.Date != nil {
		req.Date = *cmd.Date
	}

	var entry *ledger.Entry
	err := s.runner.Run(ctx, core.Unit{Name: "ledger.create_entry"}, func(tx *core.Tx) error {
		var err error
		entry, err = s.PostTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PostTx persists an entry inside a running unit of work
func (s *LedgerService) PostTx(ctx context.Context, tx *core.Tx, req ledger.PostingRequest) (*ledger.Entry, error) {
	seq, err := tx.NextNumber(ctx, shared.SequenceJournalEntry)
	if err != nil {
		return nil, err
	}
	entry, err := ledger.NewEntry(req, seq)
	if err != nil {
		return nil, err
	}
	if err := tx.Entries().Create(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Debug("Journal entry posted",
		zap.String("number", entry.Number),
		zap.String("type", string(entry.Type)),
		zap.String("debit", string(entry.DebitAccount)),
		zap.String("credit", string(entry.CreditAccount)),
		zap.String("amount", entry.Amount.String()))
	return entry, nil
}

// ReverseEntryTx posts the offsetting entry of e. An entry can be reversed once.
func (s *LedgerService) ReverseEntryTx(ctx context.Context, tx *core.Tx, e *ledger.Entry, userID uuid.UUID, description string) (*ledger.Entry, error) {
	reversed, err := tx.Entries().ExistsReversalOf(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if reversed {
		return nil, shared.NewConflictError("ALREADY_REVERSED", "Entry "+e.Number+" has already been reversed")
	}
	seq, err := tx.NextNumber(ctx, shared.SequenceJournalEntry)
	if err != nil {
		return nil, err
	}
	rev, err := ledger.NewReversal(e, seq, userID, description)
	if err != nil {
		return nil, err
	}
	if err := tx.Entries().Create(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// ReverseReferenceTx reverses every not yet reversed entry posted for a document
func (s *LedgerService) ReverseReferenceTx(ctx context.Context, tx *core.Tx, ref shared.Reference, userID uuid.UUID, description string) ([]*ledger.Entry, error) {
	entries, err := tx.Entries().FindByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	reversedIDs := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if e.ReversalOf != nil {
			reversedIDs[*e.ReversalOf] = true
		}
	}
	var out []*ledger.Entry
	for _, e := range entries {
		if e.Type == ledger.EntryTypeReversal || reversedIDs[e.ID] {
			continue
		}
		rev, err := s.ReverseEntryTx(ctx, tx, e, userID, description)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, nil
}

// GetLedger returns the running-balance view of one account. The opening
// balance sums everything dated before from; to is inclusive to the end of its day.
func (s *LedgerService) GetLedger(ctx context.Context, account ledger.Account, from, to *time.Time) (*ledger.AccountLedger, error) {
	if !account.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", "Unknown account "+string(account))
	}
	repos := s.runner.Repositories()

	opening := decimal.Zero
	var start, end *time.Time
	if from != nil {
		f := shared.StartOfDay(*from)
		start = &f
		totals, err := repos.Entries().SumByAccount(ctx, account, f)
		if err != nil {
			return nil, err
		}
		opening = ledger.OpeningBalanceFromTotals(account, totals.Debit, totals.Credit)
	}
	if to != nil {
		t := shared.EndOfDay(*to)
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, shared.NewValidationError("INVALID_DATE_RANGE", "End date is before start date")
	}

	entries, err := repos.Entries().FindByAccount(ctx, account, start, end)
	if err != nil {
		return nil, err
	}
	return ledger.BuildAccountLedger(account, start, end, opening, entries), nil
}

// GetTrialBalance totals every account up to the end of asOf's day
func (s *LedgerService) GetTrialBalance(ctx context.Context, asOf time.Time) (*ledger.TrialBalance, error) {
	cutoff := shared.EndOfDay(asOf)
	totals, err := s.runner.Repositories().Entries().TotalsAsOf(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	tb := ledger.BuildTrialBalance(cutoff, totals)
	if !tb.Balanced {
		s.logger.Error("Trial balance does not balance",
			zap.String("debit", tb.TotalDebit.String()),
			zap.String("credit", tb.TotalCredit.String()))
	}
	return tb, nil
}

// ListEntries lists entries for audit, newest first
func (s *LedgerService) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]*ledger.Entry, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Entries().FindAll(ctx, filter)
}

// EntriesByReference returns the entries posted for a document
func (s *LedgerService) EntriesByReference(ctx context.Context, ref shared.Reference) ([]*ledger.Entry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.runner.Repositories().Entries().FindByReference(ctx, ref)
}
