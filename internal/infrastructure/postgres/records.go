package postgres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/pkg/money"
)

// termsRecord is the JSONB persistence shape of model.LoanTerms. Enum value
// objects are stored by their string form.
type termsRecord struct {
	CurrencyCode          string          `json:"currency_code"`
	CurrencyDigits        int32           `json:"currency_digits"`
	InMultiplesOf         int64           `json:"in_multiples_of"`
	InterestRatePerPeriod decimal.Decimal `json:"interest_rate_per_period"`
	NumberOfRepayments    int             `json:"number_of_repayments"`
	RepaymentEvery        int             `json:"repayment_every"`
	Frequency             string          `json:"frequency"`
	Amortization          string          `json:"amortization"`
	InterestType          string          `json:"interest_type"`
	InterestCalcPeriod    string          `json:"interest_calc_period"`
	GraceOnPrincipal      int             `json:"grace_on_principal"`
	GraceOnInterest       int             `json:"grace_on_interest"`
	Recalculation         recalcRecord    `json:"recalculation"`
	OverdueCharge         *overdueRecord  `json:"overdue_charge,omitempty"`
	AccountingRule        string          `json:"accounting_rule"`
	GLAccounts            glRecord        `json:"gl_accounts"`
}

type recalcRecord struct {
	Enabled                   bool   `json:"enabled"`
	Compounding               string `json:"compounding"`
	RestFrequency             string `json:"rest_frequency"`
	RestAnchorDay             int    `json:"rest_anchor_day"`
	RescheduleStrategy        string `json:"reschedule_strategy"`
	PreCloseStrategy          string `json:"pre_close_strategy"`
	ArrearsOnOriginalSchedule bool   `json:"arrears_on_original_schedule"`
}

type overdueRecord struct {
	CalcType           string          `json:"calc_type"`
	AmountOrPercentage decimal.Decimal `json:"amount_or_percentage"`
	GraceDays          int             `json:"grace_days"`
}

type glRecord struct {
	FundSource           string `json:"fund_source"`
	AssetAccount         string `json:"asset_account"`
	IncomeAccount        string `json:"income_account"`
	ExpenseAccount       string `json:"expense_account"`
	OverpaymentLiability string `json:"overpayment_liability"`
}

func toTermsRecord(t model.LoanTerms) termsRecord {
	rec := termsRecord{
		CurrencyCode:          t.Currency.Code(),
		CurrencyDigits:        t.Currency.Digits(),
		InMultiplesOf:         t.Currency.InMultiplesOf(),
		InterestRatePerPeriod: t.InterestRatePerPeriod,
		NumberOfRepayments:    t.NumberOfRepayments,
		RepaymentEvery:        t.RepaymentEvery,
		Frequency:             t.Frequency.String(),
		Amortization:          t.Amortization.String(),
		InterestType:          t.InterestType.String(),
		InterestCalcPeriod:    t.InterestCalcPeriod.String(),
		GraceOnPrincipal:      t.GraceOnPrincipal,
		GraceOnInterest:       t.GraceOnInterest,
		Recalculation: recalcRecord{
			Enabled:                   t.Recalculation.Enabled,
			Compounding:               t.Recalculation.Compounding.String(),
			RestFrequency:             t.Recalculation.RestFrequency.String(),
			RestAnchorDay:             t.Recalculation.RestAnchorDay,
			RescheduleStrategy:        t.Recalculation.RescheduleStrategy.String(),
			PreCloseStrategy:          t.Recalculation.PreCloseStrategy.String(),
			ArrearsOnOriginalSchedule: t.Recalculation.ArrearsOnOriginalSchedule,
		},
		AccountingRule: t.AccountingRule.String(),
		GLAccounts: glRecord{
			FundSource:           t.GLAccounts.FundSource,
			AssetAccount:         t.GLAccounts.AssetAccount,
			IncomeAccount:        t.GLAccounts.IncomeAccount,
			ExpenseAccount:       t.GLAccounts.ExpenseAccount,
			OverpaymentLiability: t.GLAccounts.OverpaymentLiability,
		},
	}
	if t.OverdueCharge != nil {
		rec.OverdueCharge = &overdueRecord{
			CalcType:           t.OverdueCharge.CalcType.String(),
			AmountOrPercentage: t.OverdueCharge.AmountOrPercentage,
			GraceDays:          t.OverdueCharge.GraceDays,
		}
	}
	return rec
}

func fromTermsRecord(rec termsRecord) (model.LoanTerms, error) {
	currency, err := money.NewCurrency(rec.CurrencyCode, rec.CurrencyDigits, rec.InMultiplesOf)
	if err != nil {
		return model.LoanTerms{}, fmt.Errorf("parse currency: %w", err)
	}

	terms := model.LoanTerms{
		Currency:              currency,
		InterestRatePerPeriod: rec.InterestRatePerPeriod,
		NumberOfRepayments:    rec.NumberOfRepayments,
		RepaymentEvery:        rec.RepaymentEvery,
		GraceOnPrincipal:      rec.GraceOnPrincipal,
		GraceOnInterest:       rec.GraceOnInterest,
		Recalculation: model.RecalculationConfig{
			Enabled:                   rec.Recalculation.Enabled,
			RestAnchorDay:             rec.Recalculation.RestAnchorDay,
			ArrearsOnOriginalSchedule: rec.Recalculation.ArrearsOnOriginalSchedule,
		},
		GLAccounts: model.GLBindings{
			FundSource:           rec.GLAccounts.FundSource,
			AssetAccount:         rec.GLAccounts.AssetAccount,
			IncomeAccount:        rec.GLAccounts.IncomeAccount,
			ExpenseAccount:       rec.GLAccounts.ExpenseAccount,
			OverpaymentLiability: rec.GLAccounts.OverpaymentLiability,
		},
	}

	if terms.Frequency, err = parseEnum(rec.Frequency, valueobject.NewPeriodFrequency); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.Amortization, err = parseEnum(rec.Amortization, valueobject.NewAmortizationType); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.InterestType, err = parseEnum(rec.InterestType, valueobject.NewInterestType); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.InterestCalcPeriod, err = parseEnum(rec.InterestCalcPeriod, valueobject.NewInterestCalcPeriod); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.AccountingRule, err = parseEnum(rec.AccountingRule, valueobject.NewAccountingRule); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.Recalculation.Compounding, err = parseEnum(rec.Recalculation.Compounding, valueobject.NewCompoundingMethod); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.Recalculation.RestFrequency, err = parseEnum(rec.Recalculation.RestFrequency, valueobject.NewRestFrequency); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.Recalculation.RescheduleStrategy, err = parseEnum(rec.Recalculation.RescheduleStrategy, valueobject.NewRescheduleStrategy); err != nil {
		return model.LoanTerms{}, err
	}
	if terms.Recalculation.PreCloseStrategy, err = parseEnum(rec.Recalculation.PreCloseStrategy, valueobject.NewPreCloseInterestStrategy); err != nil {
		return model.LoanTerms{}, err
	}

	if rec.OverdueCharge != nil {
		calcType, err := parseEnum(rec.OverdueCharge.CalcType, valueobject.NewChargeCalcType)
		if err != nil {
			return model.LoanTerms{}, err
		}
		terms.OverdueCharge = &model.OverdueChargeConfig{
			CalcType:           calcType,
			AmountOrPercentage: rec.OverdueCharge.AmountOrPercentage,
			GraceDays:          rec.OverdueCharge.GraceDays,
		}
	}

	return terms, nil
}

// parseEnum parses a stored enum string, mapping the empty string to the
// value object's zero value.
func parseEnum[T any](s string, newFn func(string) (T, error)) (T, error) {
	var zero T
	if s == "" {
		return zero, nil
	}
	return newFn(s)
}

// parseDecimal parses a stored decimal string, mapping the empty string to
// zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// nullTime maps the zero time to NULL for optional timestamp columns.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
