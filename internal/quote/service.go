// Package quote provides the HTTP handlers exposing the loan engine's
// calculations: interest, schedules, collateral health, penalties, risk,
// reputation, and threshold checks.
//
// Every calculation is pure: handlers decode a request, call the engine, and
// return the result tagged with a QuoteID. Nothing here persists loan state.
// All monetary values use shopspring/decimal via fixedpoint.Amount — never
// float64 for money.
package quote

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/amortization"
	"github.com/lendfi/loan-engine/internal/collateral"
	"github.com/lendfi/loan-engine/internal/fixedpoint"
	"github.com/lendfi/loan-engine/internal/interest"
	"github.com/lendfi/loan-engine/internal/limits"
	"github.com/lendfi/loan-engine/internal/metrics"
	"github.com/lendfi/loan-engine/internal/model"
	"github.com/lendfi/loan-engine/internal/oracle"
	"github.com/lendfi/loan-engine/internal/penalty"
	"github.com/lendfi/loan-engine/internal/reputation"
	"github.com/lendfi/loan-engine/internal/risk"
)

// Service handles calculation requests. Stateless apart from the price
// source and the optional WebSocket hub.
type Service struct {
	prices oracle.PriceSource
	limits limits.Config
	wsHub  *WSHub // optional hub for price broadcasts
	now    func() uint64
}

// NewService creates a quote service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(prices oracle.PriceSource, limitCfg limits.Config, hub *WSHub) *Service {
	return &Service{
		prices: prices,
		limits: limitCfg,
		wsHub:  hub,
		now:    func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Routes mounts every calculation endpoint on the router.
func (s *Service) Routes(r chi.Router) {
	r.Post("/interest/simple", s.SimpleInterest)
	r.Post("/interest/compound", s.CompoundInterest)
	r.Post("/interest/continuous", s.ContinuousInterest)
	r.Post("/rates/apr-to-apy", s.APRToAPY)
	r.Post("/rates/apy-to-apr", s.APYToAPR)
	r.Post("/schedules/fixed", s.FixedSchedule)
	r.Post("/schedules/lump-sum", s.LumpSumSchedule)
	r.Post("/collateral/health", s.CollateralHealth)
	r.Post("/penalty/late-fee", s.LateFee)
	r.Post("/risk/assess", s.AssessRisk)
	r.Post("/reputation/score", s.ReputationScore)
	r.Post("/limits/check", s.CheckLimits)
	r.Get("/prices", s.Prices)
	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}
}

// --- Interest ---

// InterestRequest is the JSON body for the interest endpoints.
type InterestRequest struct {
	Principal       fixedpoint.Amount `json:"principal"`
	RateBps         fixedpoint.Rate   `json:"rate_bps"`
	DurationSeconds uint64            `json:"duration_seconds"`
	PeriodsPerYear  int               `json:"periods_per_year,omitempty"` // compound only
}

// InterestResponse is the JSON body returned from the interest endpoints.
type InterestResponse struct {
	QuoteID  string            `json:"quote_id"`
	Interest fixedpoint.Amount `json:"interest"`
}

// SimpleInterest handles POST /api/v1/interest/simple
func (s *Service) SimpleInterest(w http.ResponseWriter, r *http.Request) {
	var req InterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	accrued, err := interest.Simple(req.Principal, req.RateBps, req.DurationSeconds)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("interest").Inc()
	writeJSON(w, InterestResponse{QuoteID: uuid.New().String(), Interest: accrued})
}

// CompoundInterest handles POST /api/v1/interest/compound
func (s *Service) CompoundInterest(w http.ResponseWriter, r *http.Request) {
	var req InterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	accrued, err := interest.Compound(req.Principal, req.RateBps, req.DurationSeconds, req.PeriodsPerYear)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("interest").Inc()
	writeJSON(w, InterestResponse{QuoteID: uuid.New().String(), Interest: accrued})
}

// ContinuousInterest handles POST /api/v1/interest/continuous
func (s *Service) ContinuousInterest(w http.ResponseWriter, r *http.Request) {
	var req InterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	accrued, err := interest.Continuous(req.Principal, req.RateBps, req.DurationSeconds)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("interest").Inc()
	writeJSON(w, InterestResponse{QuoteID: uuid.New().String(), Interest: accrued})
}

// --- Rate conversion ---

// RateConversionRequest is the JSON body for the APR/APY endpoints. RateBps
// carries the input rate: integer APR basis points for apr-to-apy, possibly
// fractional APY basis points for apy-to-apr.
type RateConversionRequest struct {
	RateBps     decimal.Decimal      `json:"rate_bps"`
	Compounding interest.Compounding `json:"compounding"` // -1 continuous, else periods per year
}

// RateConversionResponse is the JSON body returned from the rate endpoints.
type RateConversionResponse struct {
	QuoteID string          `json:"quote_id"`
	RateBps decimal.Decimal `json:"rate_bps"`
}

// APRToAPY handles POST /api/v1/rates/apr-to-apy
func (s *Service) APRToAPY(w http.ResponseWriter, r *http.Request) {
	var req RateConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// APR is an integer-bps rate; a fractional input is a caller bug, not
	// something to truncate silently.
	if !req.RateBps.Equal(req.RateBps.Truncate(0)) {
		writeError(w, "rate_bps must be whole basis points for apr-to-apy", http.StatusBadRequest)
		return
	}
	apr, err := fixedpoint.NewRate(req.RateBps.IntPart())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	apy, err := interest.APRToAPY(apr, req.Compounding)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("rates").Inc()
	writeJSON(w, RateConversionResponse{QuoteID: uuid.New().String(), RateBps: apy})
}

// APYToAPR handles POST /api/v1/rates/apy-to-apr
func (s *Service) APYToAPR(w http.ResponseWriter, r *http.Request) {
	var req RateConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	apr, err := interest.APYToAPR(req.RateBps, req.Compounding)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("rates").Inc()
	writeJSON(w, RateConversionResponse{QuoteID: uuid.New().String(), RateBps: apr})
}

// --- Schedules ---

// ScheduleRequest is the JSON body for the schedule endpoints.
type ScheduleRequest struct {
	Principal        fixedpoint.Amount `json:"principal"`
	RateBps          fixedpoint.Rate   `json:"rate_bps"`
	NumberOfPayments int               `json:"number_of_payments,omitempty"` // fixed only
	PeriodsPerYear   int               `json:"periods_per_year,omitempty"`   // fixed only
	DurationDays     int               `json:"duration_days,omitempty"`      // lump-sum only
}

// ScheduleResponse is the JSON body returned from the schedule endpoints.
type ScheduleResponse struct {
	QuoteID  string               `json:"quote_id"`
	Schedule []amortization.Entry `json:"schedule"`
}

// FixedSchedule handles POST /api/v1/schedules/fixed
func (s *Service) FixedSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	schedule, err := amortization.FixedPaymentSchedule(req.Principal, req.RateBps, req.NumberOfPayments, req.PeriodsPerYear)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("schedule").Inc()
	writeJSON(w, ScheduleResponse{QuoteID: uuid.New().String(), Schedule: schedule})
}

// LumpSumSchedule handles POST /api/v1/schedules/lump-sum
func (s *Service) LumpSumSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	schedule, err := amortization.LumpSumSchedule(req.Principal, req.RateBps, req.DurationDays)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.QuotesTotal.WithLabelValues("schedule").Inc()
	writeJSON(w, ScheduleResponse{QuoteID: uuid.New().String(), Schedule: schedule})
}

// --- Collateral ---

// CollateralHealthRequest is the JSON body for POST /collateral/health.
// Assets with a zero price are filled in from the price source by symbol.
type CollateralHealthRequest struct {
	Position  model.CollateralPosition `json:"position"`
	LoanValue fixedpoint.Amount        `json:"loan_value"` // micro-USD
}

// CollateralHealthResponse is the full health picture of one position.
type CollateralHealthResponse struct {
	QuoteID         string                  `json:"quote_id"`
	CollateralValue fixedpoint.Amount       `json:"collateral_value"` // micro-USD
	Ratio           collateral.RatioResult  `json:"ratio"`
	Health          collateral.HealthFactor `json:"health"`
	Liquidatable    bool                    `json:"liquidatable"`
}

// CollateralHealth handles POST /api/v1/collateral/health
func (s *Service) CollateralHealth(w http.ResponseWriter, r *http.Request) {
	var req CollateralHealthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Position.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Fill missing prices from the oracle.
	for i, asset := range req.Position {
		if asset.PriceUSDMicros != 0 {
			continue
		}
		p, err := s.prices.Price(r.Context(), asset.Symbol)
		if err != nil {
			writeError(w, "no price for symbol: "+asset.Symbol, http.StatusBadRequest)
			return
		}
		req.Position[i].PriceUSDMicros = p
	}

	value := collateral.ValueUSD(req.Position)
	ratio := collateral.Ratio(value, req.LoanValue)

	metrics.QuotesTotal.WithLabelValues("collateral").Inc()
	writeJSON(w, CollateralHealthResponse{
		QuoteID:         uuid.New().String(),
		CollateralValue: value,
		Ratio:           ratio,
		Health:          collateral.Health(value, req.LoanValue),
		Liquidatable:    ratio.Level == collateral.LevelDanger,
	})
}

// --- Penalty ---

// LateFeeRequest is the JSON body for POST /penalty/late-fee. AsOf defaults
// to the server clock; Config defaults to the platform policy.
type LateFeeRequest struct {
	Principal    fixedpoint.Amount `json:"principal"`
	DueTimestamp uint64            `json:"due_timestamp"`
	AsOf         uint64            `json:"as_of,omitempty"`
	Config       *penalty.Config   `json:"config,omitempty"`
}

// LateFeeResponse is the JSON body returned from POST /penalty/late-fee.
type LateFeeResponse struct {
	QuoteID string         `json:"quote_id"`
	Fee     penalty.Result `json:"fee"`
}

// LateFee handles POST /api/v1/penalty/late-fee
func (s *Service) LateFee(w http.ResponseWriter, r *http.Request) {
	var req LateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg := penalty.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	asOf := req.AsOf
	if asOf == 0 {
		asOf = s.now()
	}

	metrics.QuotesTotal.WithLabelValues("penalty").Inc()
	writeJSON(w, LateFeeResponse{
		QuoteID: uuid.New().String(),
		Fee:     penalty.LateFee(req.Principal, req.DueTimestamp, cfg, asOf),
	})
}

// --- Risk ---

// RiskRequest is the JSON body for POST /risk/assess. Weights default to
// the platform table when omitted.
type RiskRequest struct {
	Input   risk.Input    `json:"input"`
	Weights *risk.Weights `json:"weights,omitempty"`
}

// RiskResponse is the JSON body returned from POST /risk/assess.
type RiskResponse struct {
	QuoteID    string          `json:"quote_id"`
	Assessment risk.Assessment `json:"assessment"`
}

// AssessRisk handles POST /api/v1/risk/assess
func (s *Service) AssessRisk(w http.ResponseWriter, r *http.Request) {
	var req RiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	weights := risk.DefaultWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}

	a := risk.Assess(req.Input, weights)

	slog.Info("risk assessed",
		"score", a.Score.String(),
		"level", a.Level,
		"expected_loss", a.ExpectedLoss.String(),
	)

	metrics.QuotesTotal.WithLabelValues("risk").Inc()
	writeJSON(w, RiskResponse{QuoteID: uuid.New().String(), Assessment: a})
}

// --- Reputation ---

// ReputationRequest carries the raw account history feeding a score.
type ReputationRequest struct {
	OnTimePayments int `json:"on_time_payments"`
	LatePayments   int `json:"late_payments"`
	MissedPayments int `json:"missed_payments"`

	CompletedLoans int `json:"completed_loans"`
	DefaultedLoans int `json:"defaulted_loans"`
	ActiveLoans    int `json:"active_loans"`

	FirstActivityTimestamp uint64 `json:"first_activity_timestamp"`
	AsOf                   uint64 `json:"as_of,omitempty"`

	TotalVolume  fixedpoint.Amount `json:"total_volume"`
	MedianVolume fixedpoint.Amount `json:"median_volume"`

	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Referrals int `json:"referrals"`

	// PreviousScore enables the trend field when set.
	PreviousScore *decimal.Decimal `json:"previous_score,omitempty"`
}

// ReputationResponse is the JSON body returned from POST /reputation/score.
type ReputationResponse struct {
	QuoteID string            `json:"quote_id"`
	Result  reputation.Result `json:"result"`
	Trend   reputation.Trend  `json:"trend,omitempty"`
}

// ReputationScore handles POST /api/v1/reputation/score
func (s *Service) ReputationScore(w http.ResponseWriter, r *http.Request) {
	var req ReputationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	asOf := req.AsOf
	if asOf == 0 {
		asOf = s.now()
	}

	components := reputation.Components{
		PaymentHistory: reputation.PaymentHistoryScore(req.OnTimePayments, req.LatePayments, req.MissedPayments),
		LoanCompletion: reputation.LoanCompletionScore(req.CompletedLoans, req.DefaultedLoans, req.ActiveLoans),
		TimeOnPlatform: reputation.TimeOnPlatformScore(req.FirstActivityTimestamp, asOf),
		Volume:         reputation.VolumeScore(req.TotalVolume, req.MedianVolume),
		Community:      reputation.CommunityScore(req.Upvotes, req.Downvotes, req.Referrals),
	}

	result := reputation.Score(components, reputation.DefaultWeights())

	resp := ReputationResponse{QuoteID: uuid.New().String(), Result: result}
	if req.PreviousScore != nil {
		resp.Trend = reputation.TrendOf(result.Score, *req.PreviousScore)
	}

	metrics.QuotesTotal.WithLabelValues("reputation").Inc()
	writeJSON(w, resp)
}

// --- Limits ---

// LimitsRequest is the JSON body for POST /limits/check.
type LimitsRequest struct {
	Principal       fixedpoint.Amount `json:"principal"`
	RateBps         fixedpoint.Rate   `json:"rate_bps"`
	DurationSeconds uint64            `json:"duration_seconds"`
	ActiveLoans     uint32            `json:"active_loans"`
	CurrentExposure fixedpoint.Amount `json:"current_exposure"`
}

// LimitsResponse is the JSON body returned from POST /limits/check. A loan
// that fails thresholds is still a 200: violations are data, not errors.
type LimitsResponse struct {
	QuoteID    string             `json:"quote_id"`
	Valid      bool               `json:"valid"`
	Violations []limits.Violation `json:"violations"`
}

// CheckLimits handles POST /api/v1/limits/check
func (s *Service) CheckLimits(w http.ResponseWriter, r *http.Request) {
	var req LimitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	term, err := model.NewLoanTerm(req.Principal, req.RateBps, req.DurationSeconds, s.now())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	violations := limits.CheckAll(term, req.ActiveLoans, req.CurrentExposure, s.limits)
	if violations == nil {
		violations = []limits.Violation{}
	} else {
		metrics.ValidationFailuresTotal.Inc()
	}

	metrics.QuotesTotal.WithLabelValues("limits").Inc()
	writeJSON(w, LimitsResponse{
		QuoteID:    uuid.New().String(),
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

// --- Prices ---

// Prices handles GET /api/v1/prices
func (s *Service) Prices(w http.ResponseWriter, r *http.Request) {
	prices, err := s.prices.Prices(r.Context())
	if err != nil {
		writeError(w, "price source unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, prices)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
