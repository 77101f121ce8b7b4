package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/pkg/money"
)

// GLBindings names the general-ledger accounts a product's journal entries
// post against. FundSource carries the cash leg recovered from the original
// accounting mappings; the remaining four are the product-level bindings.
type GLBindings struct {
	FundSource           string
	AssetAccount         string
	IncomeAccount        string
	ExpenseAccount       string
	OverpaymentLiability string
}

// Validate checks that all accounts required by the rule are bound.
func (b GLBindings) Validate(rule valueobject.AccountingRule) error {
	if rule.Equal(valueobject.AccountingNone) {
		return nil
	}
	if b.FundSource == "" || b.AssetAccount == "" || b.IncomeAccount == "" ||
		b.ExpenseAccount == "" || b.OverpaymentLiability == "" {
		return fmt.Errorf("accounting rule %s requires all GL account bindings", rule)
	}
	return nil
}

// OverdueChargeConfig describes the penalty the overdue job assesses per
// overdue installment once the grace window has elapsed.
type OverdueChargeConfig struct {
	CalcType           valueobject.ChargeCalcType
	AmountOrPercentage decimal.Decimal
	GraceDays          int
}

// RecalculationConfig is the product's interest-recalculation setup.
type RecalculationConfig struct {
	Enabled            bool
	Compounding        valueobject.CompoundingMethod
	RestFrequency      valueobject.RestFrequency
	RestAnchorDay      int // day-of-week (weekly) or day-of-month (monthly) anchor
	RescheduleStrategy valueobject.RescheduleStrategy
	PreCloseStrategy   valueobject.PreCloseInterestStrategy

	// ArrearsOnOriginalSchedule computes overdueSince from the original
	// schedule instead of the current recalculated one.
	ArrearsOnOriginalSchedule bool
}

// LoanProduct is shared read-only reference data describing the terms loans
// are opened under.
type LoanProduct struct {
	ID        string
	TenantID  string
	Name      string
	ShortName string
	Currency  money.Currency

	MinPrincipal     decimal.Decimal
	MaxPrincipal     decimal.Decimal
	DefaultPrincipal decimal.Decimal

	// InterestRatePerPeriod is the nominal periodic rate as a fraction,
	// e.g. 0.02 for 2% per repayment period.
	InterestRatePerPeriod decimal.Decimal

	NumberOfRepayments int
	RepaymentEvery     int
	RepaymentFrequency valueobject.PeriodFrequency

	AmortizationType   valueobject.AmortizationType
	InterestType       valueobject.InterestType
	InterestCalcPeriod valueobject.InterestCalcPeriod

	GraceOnPrincipal int
	GraceOnInterest  int

	Recalculation RecalculationConfig

	// OverdueCharge, when set, enables the overdue penalty job for loans
	// opened under this product.
	OverdueCharge *OverdueChargeConfig

	AccountingRule valueobject.AccountingRule
	GLAccounts     GLBindings
}

// Validate checks internal consistency of the product definition.
func (p LoanProduct) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product ID is required")
	}
	if p.Currency.IsZero() {
		return fmt.Errorf("product currency is required")
	}
	if p.NumberOfRepayments <= 0 {
		return fmt.Errorf("number of repayments must be positive")
	}
	if p.RepaymentEvery <= 0 {
		return fmt.Errorf("repayment interval must be positive")
	}
	if p.MinPrincipal.IsPositive() && p.MaxPrincipal.IsPositive() && p.MinPrincipal.GreaterThan(p.MaxPrincipal) {
		return fmt.Errorf("minimum principal exceeds maximum principal")
	}
	if p.InterestRatePerPeriod.IsNegative() {
		return fmt.Errorf("interest rate must not be negative")
	}
	if p.GraceOnPrincipal < 0 || p.GraceOnInterest < 0 {
		return fmt.Errorf("grace period counts must not be negative")
	}
	if p.GraceOnPrincipal >= p.NumberOfRepayments {
		return fmt.Errorf("grace on principal must leave at least one repaying period")
	}
	if p.AmortizationType.IsZero() || p.InterestType.IsZero() {
		return fmt.Errorf("amortization and interest types are required")
	}
	if err := p.GLAccounts.Validate(p.AccountingRule); err != nil {
		return err
	}
	return nil
}

// CheckPrincipal validates a requested principal against the product range.
func (p LoanProduct) CheckPrincipal(principal decimal.Decimal) error {
	if !principal.IsPositive() {
		return NewValidationError(CodePrincipalOutOfRange, "principal must be positive")
	}
	if p.MinPrincipal.IsPositive() && principal.LessThan(p.MinPrincipal) {
		return NewValidationError(CodePrincipalOutOfRange,
			"principal %s below product minimum %s", principal, p.MinPrincipal)
	}
	if p.MaxPrincipal.IsPositive() && principal.GreaterThan(p.MaxPrincipal) {
		return NewValidationError(CodePrincipalOutOfRange,
			"principal %s above product maximum %s", principal, p.MaxPrincipal)
	}
	return nil
}
