// Package lendview serves read-only lending calculations over HTTP: borrow
// quotes, health factors, liquidation splits, and fiat conversion. Every
// figure it returns is advisory; the contract recomputes and enforces the
// authoritative values at execution time.
package lendview

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loanmesh/core/types"
	"loanmesh/native/fiat"
	"loanmesh/native/lending"
	"loanmesh/native/oracle"
)

const requestLimit = 1 << 20 // 1 MiB

// Server wires the calculators to HTTP handlers.
type Server struct {
	log                *slog.Logger
	oracle             *oracle.Adapter
	risk               *lending.RiskTable
	minPartialUSDCents uint64
}

// NewServer constructs the service over the supplied oracle adapter and risk
// table.
func NewServer(log *slog.Logger, adapter *oracle.Adapter, risk *lending.RiskTable, minPartialUSDCents uint64) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:                log.With("component", "lendview"),
		oracle:             adapter,
		risk:               risk,
		minPartialUSDCents: minPartialUSDCents,
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/feeds", s.listFeeds)
		r.Post("/quotes/max-borrow", s.maxBorrow)
		r.Post("/loans/health", s.loanHealth)
		r.Post("/loans/liquidation-split", s.liquidationSplit)
		r.Post("/loans/min-partial-repay", s.minPartialRepay)
		r.Post("/fiat/convert", s.convert)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listFeeds(w http.ResponseWriter, _ *http.Request) {
	health := s.oracle.Health()
	feeds := make([]feedStatus, 0, len(health))
	for _, feed := range health {
		feeds = append(feeds, feedStatus{
			Symbol:       feed.Symbol,
			LastObserved: feed.LastObserved.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"feeds": feeds})
}

func (s *Server) maxBorrow(w http.ResponseWriter, r *http.Request) {
	var req maxBorrowRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	collateralAmount, err := parseAmount("collateralAmount", req.CollateralAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !common.IsHexAddress(req.CollateralToken) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("collateralToken %q is not a hex address", req.CollateralToken))
		return
	}
	params, err := s.risk.Lookup(common.HexToAddress(req.CollateralToken), req.DurationSeconds)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	collateralQuote, err := s.oracle.FreshPrice(r.Context(), req.CollateralSymbol)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	var quote lending.BorrowQuote
	if currency := strings.TrimSpace(req.Currency); currency != "" {
		rate, err := s.oracle.FreshRate(r.Context(), currency)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		quote, err = lending.MaxBorrowFiat(collateralAmount, collateralQuote.Price, req.CollateralDecimals, req.SelectedLTVBps, params, rate.Rate)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
	} else {
		borrowQuote, err := s.oracle.FreshPrice(r.Context(), req.BorrowSymbol)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		quote, err = lending.MaxBorrow(collateralAmount, collateralQuote.Price, req.CollateralDecimals, req.SelectedLTVBps, params, borrowQuote.Price, req.BorrowDecimals)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, maxBorrowResponse{
		CollateralValueUSD: formatAmount(quote.CollateralValueUSD),
		LoanValueUSD:       formatAmount(quote.LoanValueUSD),
		BorrowAmount:       formatAmount(quote.BorrowAmount),
		AppliedLTVBps:      quote.AppliedLTVBps,
	})
}

func (s *Server) loanHealth(w http.ResponseWriter, r *http.Request) {
	var req loanHealthRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	principal, err := parseAmount("principal", req.Principal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	repaid, err := parseAmount("amountRepaid", req.AmountRepaid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	collateralAmount, err := parseAmount("collateralAmount", req.CollateralAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	released, err := parseAmount("collateralReleased", req.CollateralReleased)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loan := &types.Loan{
		Principal:          principal,
		AmountRepaid:       repaid,
		InterestRateBps:    req.InterestRateBps,
		CollateralAmount:   collateralAmount,
		CollateralReleased: released,
	}
	if err := lending.EnsureComplete(loan); err != nil {
		s.writeEngineError(w, err)
		return
	}
	outstanding := lending.OutstandingDebt(loan)

	collateralQuote, err := s.oracle.FreshPrice(r.Context(), req.CollateralSymbol)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	borrowQuote, err := s.oracle.FreshPrice(r.Context(), req.BorrowSymbol)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	debtValue := lending.DebtValueUSD(outstanding, borrowQuote.Price, req.BorrowDecimals)
	collateralValue := lending.CollateralValueUSD(loan.RemainingCollateral(), collateralQuote.Price, req.CollateralDecimals)
	healthFactor := lending.ComputeHealthFactor(collateralValue, debtValue)

	eligible := false
	if common.IsHexAddress(req.CollateralToken) {
		if params, lookupErr := s.risk.Lookup(common.HexToAddress(req.CollateralToken), req.DurationSeconds); lookupErr == nil {
			eligible = lending.LiquidationEligible(collateralValue, debtValue, params.LiquidationThresholdBps)
		}
	}

	resp := loanHealthResponse{
		OutstandingDebt:     formatAmount(outstanding),
		DebtValueUSD:        formatAmount(debtValue),
		CollateralValueUSD:  formatAmount(collateralValue),
		Status:              string(lending.ClassifyHealth(healthFactor)),
		LiquidationEligible: eligible,
	}
	if healthFactor != nil {
		resp.HealthFactor = healthFactor.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) liquidationSplit(w http.ResponseWriter, r *http.Request) {
	var req liquidationSplitRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	outstanding, err := parseAmount("outstandingDebt", req.OutstandingDebt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	remaining, err := parseAmount("remainingCollateral", req.RemainingCollateral)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bonusBps := lending.DefaultLiquidationBonusBps
	if common.IsHexAddress(req.CollateralToken) {
		if params, lookupErr := s.risk.Lookup(common.HexToAddress(req.CollateralToken), req.DurationSeconds); lookupErr == nil {
			bonusBps = params.LiquidationBonusBps
		}
	}

	borrowQuote, err := s.oracle.FreshPrice(r.Context(), req.BorrowSymbol)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	collateralQuote, err := s.oracle.FreshPrice(r.Context(), req.CollateralSymbol)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	split, err := lending.ComputeLiquidationSplit(outstanding, borrowQuote.Price, req.BorrowDecimals, collateralQuote.Price, req.CollateralDecimals, remaining, bonusBps)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, liquidationSplitResponse{
		DebtToPay:         formatAmount(split.DebtToPay),
		DebtValueUSD:      formatAmount(split.DebtValueUSD),
		CollateralForDebt: formatAmount(split.CollateralForDebt),
		Bonus:             formatAmount(split.Bonus),
		ToLiquidator:      formatAmount(split.ToLiquidator),
		ToBorrower:        formatAmount(split.ToBorrower),
	})
}

func (s *Server) minPartialRepay(w http.ResponseWriter, r *http.Request) {
	var req minPartialRepayRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	quote, err := s.oracle.FreshPrice(r.Context(), req.AssetSymbol)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	floor := new(big.Int).SetUint64(s.minPartialUSDCents)
	minimum := lending.MinPartialRepayment(floor, quote.Price, req.AssetDecimals)
	writeJSON(w, http.StatusOK, minPartialRepayResponse{
		MinimumAmount: formatAmount(minimum),
		FloorUSDCents: s.minPartialUSDCents,
	})
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cents, err := parseAmount("amountCents", req.AmountCents)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rate, err := s.oracle.FreshRate(r.Context(), req.Currency)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	var converted *big.Int
	switch strings.ToLower(strings.TrimSpace(req.Direction)) {
	case "to_usd":
		converted, err = fiat.ToUSDCents(cents, rate.Rate)
	case "from_usd":
		converted, err = fiat.FromUSDCents(cents, rate.Rate)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("direction must be to_usd or from_usd"))
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		ConvertedCents: formatAmount(converted),
		Rate:           formatAmount(rate.Rate),
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, oracle.ErrStalePrice),
		errors.Is(err, oracle.ErrPriceUnavailable),
		errors.Is(err, oracle.ErrRateUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, lending.ErrAssetNotEnabled),
		errors.Is(err, lending.ErrInvalidAmount),
		errors.Is(err, lending.ErrNoOutstandingDebt),
		errors.Is(err, lending.ErrPending),
		errors.Is(err, fiat.ErrInvalidRate):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, status, err)
}

func decodeRequest(r *http.Request, out interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, requestLimit))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
