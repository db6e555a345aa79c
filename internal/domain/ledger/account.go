package ledger

// AccountType groups accounts by how their balance grows
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IncreasesOnDebit reports whether a debit raises the balance of this account type.
// Assets and expenses are debit-normal; liabilities, equity and revenue are credit-normal.
func (t AccountType) IncreasesOnDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account is a symbolic account name from a fixed set. It is not stored on its own.
type Account string

const (
	AccountCash        Account = "CASH"
	AccountBank        Account = "BANK"
	AccountInventory   Account = "INVENTORY"
	AccountReceivables Account = "RECEIVABLES"

	AccountPayables Account = "PAYABLES"

	AccountOwnerEquity Account = "OWNER_EQUITY"

	AccountSalesRevenue  Account = "SALES_REVENUE"
	AccountOtherIncome   Account = "OTHER_INCOME"
	AccountSurplusIncome Account = "SURPLUS_INCOME"

	AccountCOGS             Account = "COGS"
	AccountSalesReturns     Account = "SALES_RETURNS"
	AccountRentExpense      Account = "RENT_EXPENSE"
	AccountUtilitiesExpense Account = "UTILITIES_EXPENSE"
	AccountSalariesExpense  Account = "SALARIES_EXPENSE"
	AccountSuppliesExpense  Account = "SUPPLIES_EXPENSE"
	AccountOtherExpense     Account = "OTHER_EXPENSE"
	AccountShortageExpense  Account = "SHORTAGE_EXPENSE"
	AccountBadDebtExpense   Account = "BAD_DEBT_EXPENSE"
)

var accountTypes = map[Account]AccountType{
	AccountCash:             AccountTypeAsset,
	AccountBank:             AccountTypeAsset,
	AccountInventory:        AccountTypeAsset,
	AccountReceivables:      AccountTypeAsset,
	AccountPayables:         AccountTypeLiability,
	AccountOwnerEquity:      AccountTypeEquity,
	AccountSalesRevenue:     AccountTypeRevenue,
	AccountOtherIncome:      AccountTypeRevenue,
	AccountSurplusIncome:    AccountTypeRevenue,
	AccountCOGS:             AccountTypeExpense,
	AccountSalesReturns:     AccountTypeExpense, // contra-revenue, debit-normal
	AccountRentExpense:      AccountTypeExpense,
	AccountUtilitiesExpense: AccountTypeExpense,
	AccountSalariesExpense:  AccountTypeExpense,
	AccountSuppliesExpense:  AccountTypeExpense,
	AccountOtherExpense:     AccountTypeExpense,
	AccountShortageExpense:  AccountTypeExpense,
	AccountBadDebtExpense:   AccountTypeExpense,
}

// AllAccounts returns every known account in chart order
func AllAccounts() []Account {
	return []Account{
		AccountCash, AccountBank, AccountInventory, AccountReceivables,
		AccountPayables,
		AccountOwnerEquity,
		AccountSalesRevenue, AccountOtherIncome, AccountSurplusIncome,
		AccountCOGS, AccountSalesReturns, AccountRentExpense, AccountUtilitiesExpense,
		AccountSalariesExpense, AccountSuppliesExpense, AccountOtherExpense,
		AccountShortageExpense, AccountBadDebtExpense,
	}
}

// IsValid checks if the account is in the fixed set
func (a Account) IsValid() bool {
	_, ok := accountTypes[a]
	return ok
}

// Type returns the account type
func (a Account) Type() AccountType {
	return accountTypes[a]
}

// String returns the string representation of Account
func (a Account) String() string {
	return string(a)
}

// ExpenseCategory is the operator-facing category of a manual cash expense
type ExpenseCategory string

const (
	ExpenseCategoryRent      ExpenseCategory = "rent"
	ExpenseCategoryUtilities ExpenseCategory = "utilities"
	ExpenseCategorySalaries  ExpenseCategory = "salaries"
	ExpenseCategorySupplies  ExpenseCategory = "supplies"
	ExpenseCategoryOther     ExpenseCategory = "other"
)

// Account maps the category to its expense account; unknown categories post to other expense
func (c ExpenseCategory) Account() Account {
	switch c {
	case ExpenseCategoryRent:
		return AccountRentExpense
	case ExpenseCategoryUtilities:
		return AccountUtilitiesExpense
	case ExpenseCategorySalaries:
		return AccountSalariesExpense
	case ExpenseCategorySupplies:
		return AccountSuppliesExpense
	default:
		return AccountOtherExpense
	}
}
