package snapshot

import (
	"time"

	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
)

// Snapshot is the frozen financial statement set of a finalized period.
// Every value is copied at finalization time; nothing in a snapshot
// references live ledger rows.
type Snapshot struct {
	ID       id.ID `db:"id"`
	TenantID id.ID `db:"tenant_id"`
	PeriodID id.ID `db:"period_id"`

	// Statement payloads, stored as jsonb.
	BalanceSheet []byte `db:"balance_sheet"`
	ProfitLoss   []byte `db:"profit_loss"`
	VatSummary   []byte `db:"vat_summary"`
	TrialBalance []byte `db:"trial_balance"`
	OpenItems    []byte `db:"open_items"`
	Issues       []byte `db:"issues"`

	// Headline figures, denormalized for listing without unpacking jsonb.
	TotalAssets        types.Money `db:"total_assets"`
	TotalLiabilities   types.Money `db:"total_liabilities"`
	TotalEquity        types.Money `db:"total_equity"`
	NetIncome          types.Money `db:"net_income"`
	AccountsReceivable types.Money `db:"accounts_receivable"`
	AccountsPayable    types.Money `db:"accounts_payable"`
	VatPayable         types.Money `db:"vat_payable"`
	VatReceivable      types.Money `db:"vat_receivable"`

	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
}

// StatementLine is one account row inside a rendered statement.
type StatementLine struct {
	AccountCode string      `json:"account_code"`
	AccountName string      `json:"account_name"`
	Amount      types.Money `json:"amount"`
}

// BalanceSheet groups the balance-carrying accounts.
type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []StatementLine `json:"assets"`
	Liabilities      []StatementLine `json:"liabilities"`
	Equity           []StatementLine `json:"equity"`
	TotalAssets      types.Money     `json:"total_assets"`
	TotalLiabilities types.Money     `json:"total_liabilities"`
	TotalEquity      types.Money     `json:"total_equity"`
}

// ProfitLoss reports the period's result accounts.
type ProfitLoss struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Revenue       []StatementLine `json:"revenue"`
	Expenses      []StatementLine `json:"expenses"`
	TotalRevenue  types.Money     `json:"total_revenue"`
	TotalExpenses types.Money     `json:"total_expenses"`
	NetIncome     types.Money     `json:"net_income"`
}

// VatSummaryBox is one VAT return box with its frozen totals.
type VatSummaryBox struct {
	BoxCode   string      `json:"box_code"`
	Net       types.Money `json:"net"`
	Vat       types.Money `json:"vat"`
	LineCount int64       `json:"line_count"`
}

// VatSummaryStatement freezes the per-box VAT position.
type VatSummaryStatement struct {
	Boxes         []VatSummaryBox `json:"boxes"`
	VatPayable    types.Money     `json:"vat_payable"`
	VatReceivable types.Money     `json:"vat_receivable"`
}

// Issue is one bookkeeping anomaly acknowledged at finalization. The
// accountant saw these figures and finalized anyway; freezing them keeps
// that acknowledgement on the legal record.
type Issue struct {
	Code        string      `json:"code"`
	AccountCode string      `json:"account_code,omitempty"`
	AccountName string      `json:"account_name,omitempty"`
	Message     string      `json:"message"`
	Amount      types.Money `json:"amount"`
}

// TrialBalanceRow is one account's turnover and balance for the period.
type TrialBalanceRow struct {
	AccountID   id.ID       `db:"account_id" json:"account_id"`
	AccountCode string      `db:"account_code" json:"account_code"`
	AccountName string      `db:"account_name" json:"account_name"`
	AccountType string      `db:"account_type" json:"account_type"`
	Debit       types.Money `db:"debit" json:"debit"`
	Credit      types.Money `db:"credit" json:"credit"`
	Balance     types.Money `db:"balance" json:"balance"`
}

// OpenItem is an outstanding per-party balance on a balance-sheet account.
type OpenItem struct {
	PartyRef    string      `db:"party_ref" json:"party_ref"`
	AccountCode string      `db:"account_code" json:"account_code"`
	AccountName string      `db:"account_name" json:"account_name"`
	AccountType string      `db:"account_type" json:"account_type"`
	Amount      types.Money `db:"amount" json:"amount"`
}
