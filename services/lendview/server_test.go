package lendview

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"loanmesh/native/lending"
	"loanmesh/native/oracle"
)

const collateralToken = "0x00000000000000000000000000000000000000aa"

func newTestServer(t *testing.T) (*Server, *oracle.ManualSource) {
	t.Helper()
	source := oracle.NewManualSource()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	adapter := oracle.NewAdapter(source, source, 15*time.Minute)
	adapter.SetClock(func() time.Time { return now })

	source.SetPrice("ETH", big.NewInt(2_000_00000000), common.Address{}, now)
	source.SetPrice("USDC", big.NewInt(1_00000000), common.Address{}, now)
	source.SetRate("EUR", big.NewInt(92_000_000), now)

	risk := lending.NewRiskTable()
	risk.Set(common.HexToAddress(collateralToken), 2_592_000, lending.RiskParameters{
		MaxLTVBps:               7_000,
		LiquidationThresholdBps: 8_000,
	})
	return NewServer(nil, adapter, risk, 100), source
}

func post(t *testing.T, srv *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestMaxBorrowQuote(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := post(t, srv, "/v1/quotes/max-borrow", maxBorrowRequest{
		CollateralToken:    collateralToken,
		DurationSeconds:    2_592_000,
		CollateralAmount:   "1000000000", // 10 units at 8 decimals
		CollateralSymbol:   "ETH",
		CollateralDecimals: 8,
		SelectedLTVBps:     7_000,
		BorrowSymbol:       "USDC",
		BorrowDecimals:     6,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp maxBorrowResponse
	decodeBody(t, rec, &resp)
	require.Equal(t, "2000000000000", resp.CollateralValueUSD)
	require.Equal(t, "1400000000000", resp.LoanValueUSD)
	require.Equal(t, "14000000000", resp.BorrowAmount)
	require.Equal(t, uint64(7_000), resp.AppliedLTVBps)
}

func TestMaxBorrowFiatQuote(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := post(t, srv, "/v1/quotes/max-borrow", maxBorrowRequest{
		CollateralToken:    collateralToken,
		DurationSeconds:    2_592_000,
		CollateralAmount:   "1000000000",
		CollateralSymbol:   "ETH",
		CollateralDecimals: 8,
		SelectedLTVBps:     7_000,
		Currency:           "EUR",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp maxBorrowResponse
	decodeBody(t, rec, &resp)
	// $14,000 at 0.92 EUR per USD.
	require.Equal(t, "1288000", resp.BorrowAmount)
}

func TestMaxBorrowStalePriceRejected(t *testing.T) {
	srv, source := newTestServer(t)
	stale := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	source.SetPrice("ETH", big.NewInt(2_000_00000000), common.Address{}, stale)

	rec := post(t, srv, "/v1/quotes/max-borrow", maxBorrowRequest{
		CollateralToken:    collateralToken,
		DurationSeconds:    2_592_000,
		CollateralAmount:   "1000000000",
		CollateralSymbol:   "ETH",
		CollateralDecimals: 8,
		SelectedLTVBps:     7_000,
		BorrowSymbol:       "USDC",
		BorrowDecimals:     6,
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "stale")
}

func TestMaxBorrowUnknownAsset(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := post(t, srv, "/v1/quotes/max-borrow", maxBorrowRequest{
		CollateralToken:    "0x00000000000000000000000000000000000000bb",
		DurationSeconds:    60,
		CollateralAmount:   "1",
		CollateralSymbol:   "ETH",
		CollateralDecimals: 8,
		SelectedLTVBps:     5_000,
		BorrowSymbol:       "USDC",
		BorrowDecimals:     6,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoanHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := post(t, srv, "/v1/loans/health", loanHealthRequest{
		CollateralToken:    collateralToken,
		DurationSeconds:    2_592_000,
		Principal:          "14000000000", // 14,000 USDC at 6 decimals
		AmountRepaid:       "0",
		InterestRateBps:    500,
		CollateralAmount:   "1000000000",
		CollateralReleased: "0",
		CollateralSymbol:   "ETH",
		CollateralDecimals: 8,
		BorrowSymbol:       "USDC",
		BorrowDecimals:     6,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loanHealthResponse
	decodeBody(t, rec, &resp)
	// Principal plus 5% flat interest.
	require.Equal(t, "14700000000", resp.OutstandingDebt)
	require.Equal(t, "1470000000000", resp.DebtValueUSD)
	require.Equal(t, "2000000000000", resp.CollateralValueUSD)
	// 2,000,000,000,000 * 100 / 1,470,000,000,000 floors to 136.
	require.Equal(t, "136", resp.HealthFactor)
	require.Equal(t, "warning", resp.Status)
	require.False(t, resp.LiquidationEligible)
}

func TestLiquidationSplit(t *testing.T) {
	srv, source := newTestServer(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	source.SetPrice("ETH18", big.NewInt(2_500_00000000), common.Address{}, now)

	rec := post(t, srv, "/v1/loans/liquidation-split", liquidationSplitRequest{
		OutstandingDebt:     "1050000000", // 1,050 USDC
		BorrowSymbol:        "USDC",
		BorrowDecimals:      6,
		CollateralSymbol:    "ETH18",
		CollateralDecimals:  18,
		RemainingCollateral: "1000000000000000000", // 1 ETH
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp liquidationSplitResponse
	decodeBody(t, rec, &resp)
	require.Equal(t, "420000000000000000", resp.CollateralForDebt)
	require.Equal(t, "21000000000000000", resp.Bonus)
	require.Equal(t, "441000000000000000", resp.ToLiquidator)
	require.Equal(t, "559000000000000000", resp.ToBorrower)
}

func TestMinPartialRepay(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := post(t, srv, "/v1/loans/min-partial-repay", minPartialRepayRequest{
		AssetSymbol:   "ETH",
		AssetDecimals: 8,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp minPartialRepayResponse
	decodeBody(t, rec, &resp)
	// $1.00 of an asset priced at $2,000 with 8 decimals.
	require.Equal(t, "50000", resp.MinimumAmount)
	require.Equal(t, uint64(100), resp.FloorUSDCents)
}

func TestConvert(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := post(t, srv, "/v1/fiat/convert", convertRequest{
		Currency:    "EUR",
		AmountCents: "92000",
		Direction:   "to_usd",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp convertResponse
	decodeBody(t, rec, &resp)
	require.Equal(t, "100000", resp.ConvertedCents)

	rec = post(t, srv, "/v1/fiat/convert", convertRequest{
		Currency:    "EUR",
		AmountCents: "100000",
		Direction:   "from_usd",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.Equal(t, "92000", resp.ConvertedCents)
}

func TestFeedsAndHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	// Populate last-seen bookkeeping with one read.
	post(t, srv, "/v1/loans/min-partial-repay", minPartialRepayRequest{AssetSymbol: "ETH", AssetDecimals: 8})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feeds", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ETH")
}

func TestBadRequestBody(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/fiat/convert", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
