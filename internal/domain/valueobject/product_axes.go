package valueobject

import "fmt"

// The loan product is configured along several orthogonal axes. Each axis is
// an independent immutable value object so the schedule, recalculation and
// accounting engines can branch on them without inheritance hierarchies.

// ---------------------------------------------------------------------------
// AmortizationType
// ---------------------------------------------------------------------------

// AmortizationType selects how the principal obligation is spread across periods.
type AmortizationType struct {
	value string
}

const (
	amortizationEqualInstallment = "EQUAL_INSTALLMENT"
	amortizationEqualPrincipal   = "EQUAL_PRINCIPAL"
)

var (
	AmortizationEqualInstallment = AmortizationType{value: amortizationEqualInstallment}
	AmortizationEqualPrincipal   = AmortizationType{value: amortizationEqualPrincipal}
)

var validAmortizationTypes = map[string]AmortizationType{
	amortizationEqualInstallment: AmortizationEqualInstallment,
	amortizationEqualPrincipal:   AmortizationEqualPrincipal,
}

// NewAmortizationType creates an AmortizationType from a raw string.
func NewAmortizationType(s string) (AmortizationType, error) {
	v, ok := validAmortizationTypes[s]
	if !ok {
		return AmortizationType{}, fmt.Errorf("invalid amortization type: %q", s)
	}
	return v, nil
}

func (t AmortizationType) String() string                { return t.value }
func (t AmortizationType) IsZero() bool                  { return t.value == "" }
func (t AmortizationType) Equal(o AmortizationType) bool { return t.value == o.value }

// ---------------------------------------------------------------------------
// InterestType
// ---------------------------------------------------------------------------

// InterestType selects the base on which periodic interest is computed.
type InterestType struct {
	value string
}

const (
	interestDecliningBalance = "DECLINING_BALANCE"
	interestFlat             = "FLAT"
)

var (
	InterestDecliningBalance = InterestType{value: interestDecliningBalance}
	InterestFlat             = InterestType{value: interestFlat}
)

var validInterestTypes = map[string]InterestType{
	interestDecliningBalance: InterestDecliningBalance,
	interestFlat:             InterestFlat,
}

// NewInterestType creates an InterestType from a raw string.
func NewInterestType(s string) (InterestType, error) {
	v, ok := validInterestTypes[s]
	if !ok {
		return InterestType{}, fmt.Errorf("invalid interest type: %q", s)
	}
	return v, nil
}

func (t InterestType) String() string            { return t.value }
func (t InterestType) IsZero() bool              { return t.value == "" }
func (t InterestType) Equal(o InterestType) bool { return t.value == o.value }

// ---------------------------------------------------------------------------
// InterestCalcPeriod
// ---------------------------------------------------------------------------

// InterestCalcPeriod selects the granularity of interest calculation.
type InterestCalcPeriod struct {
	value string
}

const (
	interestCalcDaily           = "DAILY"
	interestCalcSameAsRepayment = "SAME_AS_REPAYMENT"
)

var (
	InterestCalcDaily           = InterestCalcPeriod{value: interestCalcDaily}
	InterestCalcSameAsRepayment = InterestCalcPeriod{value: interestCalcSameAsRepayment}
)

var validInterestCalcPeriods = map[string]InterestCalcPeriod{
	interestCalcDaily:           InterestCalcDaily,
	interestCalcSameAsRepayment: InterestCalcSameAsRepayment,
}

// NewInterestCalcPeriod creates an InterestCalcPeriod from a raw string.
func NewInterestCalcPeriod(s string) (InterestCalcPeriod, error) {
	v, ok := validInterestCalcPeriods[s]
	if !ok {
		return InterestCalcPeriod{}, fmt.Errorf("invalid interest calculation period: %q", s)
	}
	return v, nil
}

func (t InterestCalcPeriod) String() string                  { return t.value }
func (t InterestCalcPeriod) IsZero() bool                    { return t.value == "" }
func (t InterestCalcPeriod) Equal(o InterestCalcPeriod) bool { return t.value == o.value }

// ---------------------------------------------------------------------------
// CompoundingMethod
// ---------------------------------------------------------------------------

// CompoundingMethod selects which unpaid components are folded into the
// principal base at compounding boundaries during recalculation.
type CompoundingMethod struct {
	value string
}

const (
	compoundingNone           = "NONE"
	compoundingInterest       = "INTEREST"
	compoundingFee            = "FEE"
	compoundingInterestAndFee = "INTEREST_AND_FEE"
)

var (
	CompoundingNone           = CompoundingMethod{value: compoundingNone}
	CompoundingInterest       = CompoundingMethod{value: compoundingInterest}
	CompoundingFee            = CompoundingMethod{value: compoundingFee}
	CompoundingInterestAndFee = CompoundingMethod{value: compoundingInterestAndFee}
)

var validCompoundingMethods = map[string]CompoundingMethod{
	compoundingNone:           CompoundingNone,
	compoundingInterest:       CompoundingInterest,
	compoundingFee:            CompoundingFee,
	compoundingInterestAndFee: CompoundingInterestAndFee,
}

// NewCompoundingMethod creates a CompoundingMethod from a raw string.
func NewCompoundingMethod(s string) (CompoundingMethod, error) {
	v, ok := validCompoundingMethods[s]
	if !ok {
		return CompoundingMethod{}, fmt.Errorf("invalid compounding method: %q", s)
	}
	return v, nil
}

func (t CompoundingMethod) String() string { return t.value }
func (t CompoundingMethod) IsZero() bool   { return t.value == "" }
func (t CompoundingMethod) Equal(o CompoundingMethod) bool {
	return t.value == o.value
}

// CompoundsInterest reports whether unpaid interest is added to the principal base.
func (t CompoundingMethod) CompoundsInterest() bool {
	return t.value == compoundingInterest || t.value == compoundingInterestAndFee
}

// CompoundsFee reports whether unpaid fees are added to the principal base.
func (t CompoundingMethod) CompoundsFee() bool {
	return t.value == compoundingFee || t.value == compoundingInterestAndFee
}

// ---------------------------------------------------------------------------
// RestFrequency
// ---------------------------------------------------------------------------

// RestFrequency describes how often outstanding principal is fixed as the
// base for interest computation during recalculation.
type RestFrequency struct {
	value string
}

const (
	restDaily           = "DAILY"
	restWeekly          = "WEEKLY"
	restMonthly         = "MONTHLY"
	restSameAsRepayment = "SAME_AS_REPAYMENT"
)

var (
	RestDaily           = RestFrequency{value: restDaily}
	RestWeekly          = RestFrequency{value: restWeekly}
	RestMonthly         = RestFrequency{value: restMonthly}
	RestSameAsRepayment = RestFrequency{value: restSameAsRepayment}
)

var validRestFrequencies = map[string]RestFrequency{
	restDaily:           RestDaily,
	restWeekly:          RestWeekly,
	restMonthly:         RestMonthly,
	restSameAsRepayment: RestSameAsRepayment,
}

// NewRestFrequency creates a RestFrequency from a raw string.
func NewRestFrequency(s string) (RestFrequency, error) {
	v, ok := validRestFrequencies[s]
	if !ok {
		return RestFrequency{}, fmt.Errorf("invalid rest frequency: %q", s)
	}
	return v, nil
}

func (t RestFrequency) String() string             { return t.value }
func (t RestFrequency) IsZero() bool               { return t.value == "" }
func (t RestFrequency) Equal(o RestFrequency) bool { return t.value == o.value }

// ---------------------------------------------------------------------------
// RescheduleStrategy
// ---------------------------------------------------------------------------

// RescheduleStrategy selects how the forward schedule reconciles with a
// recalculated outstanding balance.
type RescheduleStrategy struct {
	value string
}

const (
	rescheduleReduceEMI          = "REDUCE_EMI"
	rescheduleReduceInstallments = "REDUCE_NUMBER_OF_INSTALLMENTS"
	rescheduleNextRepayments     = "RESCHEDULE_NEXT_REPAYMENTS"
)

var (
	RescheduleReduceEMI          = RescheduleStrategy{value: rescheduleReduceEMI}
	RescheduleReduceInstallments = RescheduleStrategy{value: rescheduleReduceInstallments}
	RescheduleNextRepayments     = RescheduleStrategy{value: rescheduleNextRepayments}
)

var validRescheduleStrategies = map[string]RescheduleStrategy{
	rescheduleReduceEMI:          RescheduleReduceEMI,
	rescheduleReduceInstallments: RescheduleReduceInstallments,
	rescheduleNextRepayments:     RescheduleNextRepayments,
}

// NewRescheduleStrategy creates a RescheduleStrategy from a raw string.
func NewRescheduleStrategy(s string) (RescheduleStrategy, error) {
	v, ok := validRescheduleStrategies[s]
	if !ok {
		return RescheduleStrategy{}, fmt.Errorf("invalid reschedule strategy: %q", s)
	}
	return v, nil
}

func (t RescheduleStrategy) String() string                  { return t.value }
func (t RescheduleStrategy) IsZero() bool                    { return t.value == "" }
func (t RescheduleStrategy) Equal(o RescheduleStrategy) bool { return t.value == o.value }

// ---------------------------------------------------------------------------
// PreCloseInterestStrategy
// ---------------------------------------------------------------------------

// PreCloseInterestStrategy selects up to which date interest accrues when a
// loan is settled before maturity.
type PreCloseInterestStrategy struct {
	value string
}

const (
	preCloseOnPreCloseDate = "ON_PRE_CLOSE_DATE"
	preCloseOnRestDate     = "ON_REST_DATE"
)

var (
	PreCloseOnPreCloseDate = PreCloseInterestStrategy{value: preCloseOnPreCloseDate}
	PreCloseOnRestDate     = PreCloseInterestStrategy{value: preCloseOnRestDate}
)

var validPreCloseStrategies = map[string]PreCloseInterestStrategy{
	preCloseOnPreCloseDate: PreCloseOnPreCloseDate,
	preCloseOnRestDate:     PreCloseOnRestDate,
}

// NewPreCloseInterestStrategy creates a PreCloseInterestStrategy from a raw string.
func NewPreCloseInterestStrategy(s string) (PreCloseInterestStrategy, error) {
	v, ok := validPreCloseStrategies[s]
	if !ok {
		return PreCloseInterestStrategy{}, fmt.Errorf("invalid pre-close interest strategy: %q", s)
	}
	return v, nil
}

func (t PreCloseInterestStrategy) String() string { return t.value }
func (t PreCloseInterestStrategy) IsZero() bool   { return t.value == "" }
func (t PreCloseInterestStrategy) Equal(o PreCloseInterestStrategy) bool {
	return t.value == o.value
}

// ---------------------------------------------------------------------------
// AccountingRule
// ---------------------------------------------------------------------------

// AccountingRule selects how loan transactions map to journal entries.
type AccountingRule struct {
	value string
}

const (
	accountingNone            = "NONE"
	accountingCashBased       = "CASH_BASED"
	accountingAccrualUpfront  = "ACCRUAL_UPFRONT"
	accountingAccrualPeriodic = "ACCRUAL_PERIODIC"
)

var (
	AccountingNone            = AccountingRule{value: accountingNone}
	AccountingCashBased       = AccountingRule{value: accountingCashBased}
	AccountingAccrualUpfront  = AccountingRule{value: accountingAccrualUpfront}
	AccountingAccrualPeriodic = AccountingRule{value: accountingAccrualPeriodic}
)

var validAccountingRules = map[string]AccountingRule{
	accountingNone:            AccountingNone,
	accountingCashBased:       AccountingCashBased,
	accountingAccrualUpfront:  AccountingAccrualUpfront,
	accountingAccrualPeriodic: AccountingAccrualPeriodic,
}

// NewAccountingRule creates an AccountingRule from a raw string.
func NewAccountingRule(s string) (AccountingRule, error) {
	v, ok := validAccountingRules[s]
	if !ok {
		return AccountingRule{}, fmt.Errorf("invalid accounting rule: %q", s)
	}
	return v, nil
}

func (t AccountingRule) String() string              { return t.value }
func (t AccountingRule) IsZero() bool                { return t.value == "" }
func (t AccountingRule) Equal(o AccountingRule) bool { return t.value == o.value }

// IsAccrual reports whether the rule recognises income ahead of cash.
func (t AccountingRule) IsAccrual() bool {
	return t.value == accountingAccrualUpfront || t.value == accountingAccrualPeriodic
}

// ---------------------------------------------------------------------------
// PeriodFrequency
// ---------------------------------------------------------------------------

// PeriodFrequency is the unit of the repayment interval.
type PeriodFrequency struct {
	value string
}

const (
	frequencyDays   = "DAYS"
	frequencyWeeks  = "WEEKS"
	frequencyMonths = "MONTHS"
)

var (
	FrequencyDays   = PeriodFrequency{value: frequencyDays}
	FrequencyWeeks  = PeriodFrequency{value: frequencyWeeks}
	FrequencyMonths = PeriodFrequency{value: frequencyMonths}
)

var validPeriodFrequencies = map[string]PeriodFrequency{
	frequencyDays:   FrequencyDays,
	frequencyWeeks:  FrequencyWeeks,
	frequencyMonths: FrequencyMonths,
}

// NewPeriodFrequency creates a PeriodFrequency from a raw string.
func NewPeriodFrequency(s string) (PeriodFrequency, error) {
	v, ok := validPeriodFrequencies[s]
	if !ok {
		return PeriodFrequency{}, fmt.Errorf("invalid period frequency: %q", s)
	}
	return v, nil
}

func (t PeriodFrequency) String() string               { return t.value }
func (t PeriodFrequency) IsZero() bool                 { return t.value == "" }
func (t PeriodFrequency) Equal(o PeriodFrequency) bool { return t.value == o.value }
