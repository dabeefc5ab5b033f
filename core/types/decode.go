package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMalformedTuple indicates a contract read returned a tuple whose shape or
// field types do not match the entity being decoded.
var ErrMalformedTuple = errors.New("types: malformed contract tuple")

// The decoders below are the single read-boundary translation from raw
// contract tuples into canonical structs. Calculators never see tuples and
// never branch on shape.

const (
	loanFieldCount        = 15
	fiatLoanFieldCount    = 16
	loanRequestFieldCount = 11
	lenderOfferFieldCount = 8
)

// DecodeLoan translates a positional contract tuple into a Loan.
func DecodeLoan(fields []interface{}) (*Loan, error) {
	if len(fields) != loanFieldCount {
		return nil, fmt.Errorf("%w: loan wants %d fields, got %d", ErrMalformedTuple, loanFieldCount, len(fields))
	}
	d := tupleDecoder{fields: fields, entity: "loan"}
	loan := &Loan{
		ID:                 d.uint64At(0),
		Borrower:           d.addressAt(1),
		Lender:             d.addressAt(2),
		CollateralToken:    d.addressAt(3),
		CollateralAmount:   d.bigAt(4),
		CollateralReleased: d.bigAt(5),
		BorrowToken:        d.addressAt(6),
		Principal:          d.bigAt(7),
		InterestRateBps:    d.uint64At(8),
		Duration:           d.uint64At(9),
		StartTime:          d.uint64At(10),
		DueDate:            d.uint64At(11),
		GracePeriodEnd:     d.uint64At(12),
		AmountRepaid:       d.bigAt(13),
		Status:             LoanStatus(d.statusAt(14, loanStatusNames)),
	}
	if d.err != nil {
		return nil, d.err
	}
	return loan, nil
}

// DecodeFiatLoan translates a positional contract tuple into a FiatLoan.
func DecodeFiatLoan(fields []interface{}) (*FiatLoan, error) {
	if len(fields) != fiatLoanFieldCount {
		return nil, fmt.Errorf("%w: fiat loan wants %d fields, got %d", ErrMalformedTuple, fiatLoanFieldCount, len(fields))
	}
	d := tupleDecoder{fields: fields, entity: "fiat loan"}
	loan := &FiatLoan{
		ID:                     d.uint64At(0),
		Borrower:               d.addressAt(1),
		Supplier:               d.addressAt(2),
		CollateralToken:        d.addressAt(3),
		CollateralAmount:       d.bigAt(4),
		CollateralReleased:     d.bigAt(5),
		BorrowCurrency:         d.currencyAt(6),
		PrincipalCents:         d.bigAt(7),
		InterestRateBps:        d.uint64At(8),
		Duration:               d.uint64At(9),
		StartTime:              d.uint64At(10),
		DueDate:                d.uint64At(11),
		GracePeriodEnd:         d.uint64At(12),
		AmountRepaidCents:      d.bigAt(13),
		ExchangeRateAtCreation: d.bigAt(14),
		Status:                 FiatLoanStatus(d.statusAt(15, fiatLoanStatusNames)),
	}
	if d.err != nil {
		return nil, d.err
	}
	return loan, nil
}

// DecodeLoanRequest translates a positional contract tuple into a LoanRequest.
func DecodeLoanRequest(fields []interface{}) (*LoanRequest, error) {
	if len(fields) != loanRequestFieldCount {
		return nil, fmt.Errorf("%w: loan request wants %d fields, got %d", ErrMalformedTuple, loanRequestFieldCount, len(fields))
	}
	d := tupleDecoder{fields: fields, entity: "loan request"}
	req := &LoanRequest{
		ID:                 d.uint64At(0),
		Borrower:           d.addressAt(1),
		CollateralToken:    d.addressAt(2),
		CollateralAmount:   d.bigAt(3),
		BorrowToken:        d.addressAt(4),
		BorrowAmount:       d.bigAt(5),
		Duration:           d.uint64At(6),
		MaxInterestRateBps: d.uint64At(7),
		InterestRateBps:    d.uint64At(8),
		ExpireAt:           d.uint64At(9),
		Status:             RequestStatus(d.statusAt(10, requestStatusNames)),
	}
	if d.err != nil {
		return nil, d.err
	}
	return req, nil
}

// DecodeLenderOffer translates a positional contract tuple into a LenderOffer.
func DecodeLenderOffer(fields []interface{}) (*LenderOffer, error) {
	if len(fields) != lenderOfferFieldCount {
		return nil, fmt.Errorf("%w: lender offer wants %d fields, got %d", ErrMalformedTuple, lenderOfferFieldCount, len(fields))
	}
	d := tupleDecoder{fields: fields, entity: "lender offer"}
	offer := &LenderOffer{
		ID:              d.uint64At(0),
		Lender:          d.addressAt(1),
		BorrowToken:     d.addressAt(2),
		Amount:          d.bigAt(3),
		Duration:        d.uint64At(4),
		InterestRateBps: d.uint64At(5),
		ExpireAt:        d.uint64At(6),
		Status:          RequestStatus(d.statusAt(7, requestStatusNames)),
	}
	if d.err != nil {
		return nil, d.err
	}
	return offer, nil
}

var loanStatusNames = []string{
	string(LoanStatusActive),
	string(LoanStatusRepaid),
	string(LoanStatusLiquidated),
	string(LoanStatusDefaulted),
}

var fiatLoanStatusNames = []string{
	string(FiatLoanStatusPendingSupplier),
	string(FiatLoanStatusActive),
	string(FiatLoanStatusRepaid),
	string(FiatLoanStatusLiquidated),
	string(FiatLoanStatusCancelled),
}

var requestStatusNames = []string{
	string(RequestStatusPending),
	string(RequestStatusFunded),
	string(RequestStatusCancelled),
	string(RequestStatusExpired),
}

// tupleDecoder accumulates the first type mismatch while walking a tuple so
// each DecodeX function stays a flat field list.
type tupleDecoder struct {
	fields []interface{}
	entity string
	err    error
}

func (d *tupleDecoder) fail(index int, want string, got interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s field %d wants %s, got %T", ErrMalformedTuple, d.entity, index, want, got)
	}
}

func (d *tupleDecoder) bigAt(index int) *big.Int {
	switch v := d.fields[index].(type) {
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			d.fail(index, "unsigned big integer", v)
			return big.NewInt(0)
		}
		return new(big.Int).Set(v)
	case uint64:
		return new(big.Int).SetUint64(v)
	default:
		d.fail(index, "unsigned big integer", v)
		return big.NewInt(0)
	}
}

func (d *tupleDecoder) uint64At(index int) uint64 {
	switch v := d.fields[index].(type) {
	case uint64:
		return v
	case *big.Int:
		if v == nil || v.Sign() < 0 || !v.IsUint64() {
			d.fail(index, "uint64", v)
			return 0
		}
		return v.Uint64()
	default:
		d.fail(index, "uint64", v)
		return 0
	}
}

func (d *tupleDecoder) addressAt(index int) common.Address {
	switch v := d.fields[index].(type) {
	case common.Address:
		return v
	case string:
		if !common.IsHexAddress(v) {
			d.fail(index, "address", v)
			return common.Address{}
		}
		return common.HexToAddress(v)
	default:
		d.fail(index, "address", v)
		return common.Address{}
	}
}

func (d *tupleDecoder) currencyAt(index int) string {
	v, ok := d.fields[index].(string)
	if !ok {
		d.fail(index, "currency code", d.fields[index])
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(v))
}

// statusAt accepts either the canonical status string or the contract's enum
// ordinal for the entity.
func (d *tupleDecoder) statusAt(index int, names []string) string {
	switch v := d.fields[index].(type) {
	case string:
		needle := strings.ToUpper(strings.TrimSpace(v))
		for _, name := range names {
			if name == needle {
				return name
			}
		}
		d.fail(index, "status", v)
		return ""
	case uint8:
		if int(v) >= len(names) {
			d.fail(index, "status ordinal", v)
			return ""
		}
		return names[v]
	case uint64:
		if int(v) >= len(names) {
			d.fail(index, "status ordinal", v)
			return ""
		}
		return names[v]
	default:
		d.fail(index, "status", v)
		return ""
	}
}
