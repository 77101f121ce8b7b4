package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// ChargeType
// ---------------------------------------------------------------------------

// ChargeType selects when a charge falls due and how it is distributed
// across the repayment schedule.
type ChargeType struct {
	value string
}

const (
	chargeDisbursement     = "DISBURSEMENT"
	chargeSpecifiedDueDate = "SPECIFIED_DUE_DATE"
	chargeInstallmentFee   = "INSTALLMENT_FEE"
	chargeOverdueFee       = "OVERDUE_FEE"
)

var (
	ChargeDisbursement     = ChargeType{value: chargeDisbursement}
	ChargeSpecifiedDueDate = ChargeType{value: chargeSpecifiedDueDate}
	ChargeInstallmentFee   = ChargeType{value: chargeInstallmentFee}
	ChargeOverdueFee       = ChargeType{value: chargeOverdueFee}
)

var validChargeTypes = map[string]ChargeType{
	chargeDisbursement:     ChargeDisbursement,
	chargeSpecifiedDueDate: ChargeSpecifiedDueDate,
	chargeInstallmentFee:   ChargeInstallmentFee,
	chargeOverdueFee:       ChargeOverdueFee,
}

// NewChargeType creates a ChargeType from a raw string.
func NewChargeType(s string) (ChargeType, error) {
	v, ok := validChargeTypes[s]
	if !ok {
		return ChargeType{}, fmt.Errorf("invalid charge type: %q", s)
	}
	return v, nil
}

func (t ChargeType) String() string          { return t.value }
func (t ChargeType) IsZero() bool            { return t.value == "" }
func (t ChargeType) Equal(o ChargeType) bool { return t.value == o.value }

// ---------------------------------------------------------------------------
// ChargeCalcType
// ---------------------------------------------------------------------------

// ChargeCalcType selects the base a charge amount is derived from.
type ChargeCalcType struct {
	value string
}

const (
	chargeCalcFlat            = "FLAT"
	chargeCalcPctAmount       = "PCT_OF_AMOUNT"
	chargeCalcPctInterest     = "PCT_OF_INTEREST"
	chargeCalcPctAmountAndInt = "PCT_OF_AMOUNT_AND_INTEREST"
)

var (
	ChargeCalcFlat                   = ChargeCalcType{value: chargeCalcFlat}
	ChargeCalcPctOfAmount            = ChargeCalcType{value: chargeCalcPctAmount}
	ChargeCalcPctOfInterest          = ChargeCalcType{value: chargeCalcPctInterest}
	ChargeCalcPctOfAmountAndInterest = ChargeCalcType{value: chargeCalcPctAmountAndInt}
)

var validChargeCalcTypes = map[string]ChargeCalcType{
	chargeCalcFlat:            ChargeCalcFlat,
	chargeCalcPctAmount:       ChargeCalcPctOfAmount,
	chargeCalcPctInterest:     ChargeCalcPctOfInterest,
	chargeCalcPctAmountAndInt: ChargeCalcPctOfAmountAndInterest,
}

// NewChargeCalcType creates a ChargeCalcType from a raw string.
func NewChargeCalcType(s string) (ChargeCalcType, error) {
	v, ok := validChargeCalcTypes[s]
	if !ok {
		return ChargeCalcType{}, fmt.Errorf("invalid charge calculation type: %q", s)
	}
	return v, nil
}

func (t ChargeCalcType) String() string              { return t.value }
func (t ChargeCalcType) IsZero() bool                { return t.value == "" }
func (t ChargeCalcType) Equal(o ChargeCalcType) bool { return t.value == o.value }

// IsPercentage reports whether the charge amount is derived from a base amount.
func (t ChargeCalcType) IsPercentage() bool {
	return t.value != chargeCalcFlat && t.value != ""
}

// ---------------------------------------------------------------------------
// TransactionType
// ---------------------------------------------------------------------------

// TransactionType classifies loan transactions.
type TransactionType struct {
	value string
}

const (
	txnDisbursement  = "DISBURSEMENT"
	txnRepayment     = "REPAYMENT"
	txnWaiveInterest = "WAIVE_INTEREST"
	txnWaiveCharge   = "WAIVE_CHARGE"
	txnRefund        = "REFUND"
	txnWriteOff      = "WRITE_OFF"
	txnAccrual       = "ACCRUAL"
)

var (
	TxnDisbursement  = TransactionType{value: txnDisbursement}
	TxnRepayment     = TransactionType{value: txnRepayment}
	TxnWaiveInterest = TransactionType{value: txnWaiveInterest}
	TxnWaiveCharge   = TransactionType{value: txnWaiveCharge}
	TxnRefund        = TransactionType{value: txnRefund}
	TxnWriteOff      = TransactionType{value: txnWriteOff}
	TxnAccrual       = TransactionType{value: txnAccrual}
)

var validTransactionTypes = map[string]TransactionType{
	txnDisbursement:  TxnDisbursement,
	txnRepayment:     TxnRepayment,
	txnWaiveInterest: TxnWaiveInterest,
	txnWaiveCharge:   TxnWaiveCharge,
	txnRefund:        TxnRefund,
	txnWriteOff:      TxnWriteOff,
	txnAccrual:       TxnAccrual,
}

// NewTransactionType creates a TransactionType from a raw string.
func NewTransactionType(s string) (TransactionType, error) {
	v, ok := validTransactionTypes[s]
	if !ok {
		return TransactionType{}, fmt.Errorf("invalid transaction type: %q", s)
	}
	return v, nil
}

func (t TransactionType) String() string               { return t.value }
func (t TransactionType) IsZero() bool                 { return t.value == "" }
func (t TransactionType) Equal(o TransactionType) bool { return t.value == o.value }

// MovesCash reports whether the transaction represents an actual cash movement.
func (t TransactionType) MovesCash() bool {
	switch t.value {
	case txnDisbursement, txnRepayment, txnRefund:
		return true
	}
	return false
}
