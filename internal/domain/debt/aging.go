package debt

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AgingTier buckets an open balance by how long it has been overdue
type AgingTier string

const (
	TierCurrent AgingTier = "current" // not yet due
	Tier1       AgingTier = "tier1"   // 1-30 days overdue
	Tier2       AgingTier = "tier2"   // 31-60 days overdue
	Tier3       AgingTier = "tier3"   // more than 60 days overdue
)

// AllTiers returns the tiers in ascending age
func AllTiers() []AgingTier {
	return []AgingTier{TierCurrent, Tier1, Tier2, Tier3}
}

// TierFor maps days overdue to a tier
func TierFor(daysOverdue int) AgingTier {
	switch {
	case daysOverdue > 60:
		return Tier3
	case daysOverdue > 30:
		return Tier2
	case daysOverdue > 0:
		return Tier1
	default:
		return TierCurrent
	}
}

// DaysBetween counts calendar days from due to now
func DaysBetween(due, now time.Time) int {
	return int(shared.StartOfDay(now).Sub(shared.StartOfDay(due)).Hours() / 24)
}

// RiskScore summarizes how old the receivables are
type RiskScore string

const (
	RiskHealthy  RiskScore = "HEALTHY"
	RiskWarning  RiskScore = "WARNING"
	RiskCritical RiskScore = "CRITICAL"
)

var (
	criticalShare = decimal.NewFromFloat(0.4)
	warningShare  = decimal.NewFromFloat(0.2)
)

// OpenItem is one unpaid balance fed into the overview: an invoice, a received
// credit purchase order, or a manual debt
type OpenItem struct {
	DebtorID   uuid.UUID
	DebtorName string
	DebtorType DebtorType
	Reference  shared.Reference
	Balance    decimal.Decimal
	DueDate    time.Time
}

// TierTotal is the amount and item count of one tier
type TierTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// DebtorTotal is the aggregated open balance of one debtor
type DebtorTotal struct {
	DebtorID    uuid.UUID       `json:"debtor_id"`
	Name        string          `json:"name"`
	TotalDebt   decimal.Decimal `json:"total_debt"`
	OldestDays  int             `json:"oldest_days"`
	OpenItems   int             `json:"open_items"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// AgingSummary is one side (receivables or payables) of the overview
type AgingSummary struct {
	Total    decimal.Decimal         `json:"total"`
	Tiers    map[AgingTier]TierTotal `json:"tiers"`
	ByDebtor []DebtorTotal           `json:"by_debtor"`
}

// Overview is the aggregate debt position of the business
type Overview struct {
	AsOf           time.Time        `json:"as_of"`
	Receivables    AgingSummary     `json:"receivables"`
	Payables       AgingSummary     `json:"payables"`
	TotalNet       decimal.Decimal  `json:"total_net"`
	LiquidityPulse *decimal.Decimal `json:"liquidity_pulse"`
	RiskScore      RiskScore        `json:"risk_score"`
}

// BuildOverview ages every open item as of now. creditLimits is optional and
// annotates customer rows. Liquidity pulse is receivables/payables, nil when
// there are no payables.
func BuildOverview(now time.Time, items []OpenItem, creditLimits map[uuid.UUID]decimal.Decimal) *Overview {
	var receivables, payables []OpenItem
	for _, it := range items {
		if !it.Balance.IsPositive() {
			continue
		}
		if it.DebtorType == DebtorSupplier {
			payables = append(payables, it)
		} else {
			receivables = append(receivables, it)
		}
	}

	o := &Overview{
		AsOf:        now,
		Receivables: summarize(now, receivables, creditLimits),
		Payables:    summarize(now, payables, nil),
	}
	o.TotalNet = o.Receivables.Total.Sub(o.Payables.Total)
	if o.Payables.Total.IsPositive() {
		pulse := o.Receivables.Total.Div(o.Payables.Total).Round(2)
		o.LiquidityPulse = &pulse
	}
	o.RiskScore = riskOf(o.Receivables)
	return o
}

func summarize(now time.Time, items []OpenItem, creditLimits map[uuid.UUID]decimal.Decimal) AgingSummary {
	s := AgingSummary{
		Total:    decimal.Zero,
		Tiers:    make(map[AgingTier]TierTotal, 4),
		ByDebtor: []DebtorTotal{},
	}
	for _, tier := range AllTiers() {
		s.Tiers[tier] = TierTotal{Amount: decimal.Zero}
	}

	byDebtor := make(map[uuid.UUID]*DebtorTotal)
	for _, it := range items {
		days := DaysBetween(it.DueDate, now)
		tier := TierFor(days)
		tt := s.Tiers[tier]
		tt.Amount = tt.Amount.Add(it.Balance)
		tt.Count++
		s.Tiers[tier] = tt
		s.Total = s.Total.Add(it.Balance)

		if it.DebtorID == uuid.Nil {
			continue
		}
		row, ok := byDebtor[it.DebtorID]
		if !ok {
			row = &DebtorTotal{DebtorID: it.DebtorID, Name: it.DebtorName, TotalDebt: decimal.Zero, CreditLimit: decimal.Zero}
			if limit, found := creditLimits[it.DebtorID]; found {
				row.CreditLimit = limit
			}
			byDebtor[it.DebtorID] = row
		}
		row.TotalDebt = row.TotalDebt.Add(it.Balance)
		row.OpenItems++
		if days > row.OldestDays {
			row.OldestDays = days
		}
	}

	for _, row := range byDebtor {
		s.ByDebtor = append(s.ByDebtor, *row)
	}
	sort.Slice(s.ByDebtor, func(i, j int) bool {
		if !s.ByDebtor[i].TotalDebt.Equal(s.ByDebtor[j].TotalDebt) {
			return s.ByDebtor[i].TotalDebt.GreaterThan(s.ByDebtor[j].TotalDebt)
		}
		return s.ByDebtor[i].DebtorID.String() < s.ByDebtor[j].DebtorID.String()
	})
	return s
}

func riskOf(receivables AgingSummary) RiskScore {
	if !receivables.Total.IsPositive() {
		return RiskHealthy
	}
	share := receivables.Tiers[Tier3].Amount.Div(receivables.Total)
	switch {
	case share.GreaterThan(criticalShare):
		return RiskCritical
	case share.GreaterThan(warningShare):
		return RiskWarning
	default:
		return RiskHealthy
	}
}
