package http

import (
	"net/http"

	"banko/internal/ledger"
	"banko/internal/services"
)

type monthResponse struct {
	Month   string  `json:"month"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
}

type dashboardResponse struct {
	Months  []monthResponse `json:"months"`
	Balance float64         `json:"balance"`
}

type metricsResponse struct {
	MonthInflow  float64  `json:"monthInflow"`
	MonthOutflow float64  `json:"monthOutflow"`
	InflowTrend  *float64 `json:"inflowTrend"`
	OutflowTrend *float64 `json:"outflowTrend"`
	MostUsedType string   `json:"mostUsedType"`
	Total        int      `json:"totalTransactions"`
}

func toDashboardResponse(d services.Dashboard) dashboardResponse {
	months := make([]monthResponse, len(d.Months))
	for i, m := range d.Months {
		months[i] = monthResponse{
			Month:   m.Month,
			Inflow:  float64(m.Inflow) / 100.0,
			Outflow: float64(m.Outflow) / 100.0,
		}
	}
	return dashboardResponse{Months: months, Balance: float64(d.BalanceCents) / 100.0}
}

func toMetricsResponse(m ledger.Summary) metricsResponse {
	return metricsResponse{
		MonthInflow:  float64(m.MonthInflow) / 100.0,
		MonthOutflow: float64(m.MonthOutflow) / 100.0,
		InflowTrend:  m.InflowTrend,
		OutflowTrend: m.OutflowTrend,
		MostUsedType: m.MostUsedType,
		Total:        m.Total,
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	if d, ok := s.dashboardCache.Get(userID); ok {
		respondJSON(w, http.StatusOK, toDashboardResponse(d))
		return
	}

	d, err := s.dashboards.Dashboard(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, "dashboard", err)
		return
	}

	s.dashboardCache.Set(userID, d)
	respondJSON(w, http.StatusOK, toDashboardResponse(d))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	if m, ok := s.metricsCache.Get(userID); ok {
		respondJSON(w, http.StatusOK, toMetricsResponse(m))
		return
	}

	m, err := s.dashboards.Metrics(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, "metrics", err)
		return
	}

	s.metricsCache.Set(userID, m)
	respondJSON(w, http.StatusOK, toMetricsResponse(m))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	if cents, ok := s.balanceCache.Get(userID); ok {
		respondJSON(w, http.StatusOK, map[string]float64{"balance": float64(cents) / 100.0})
		return
	}

	cents, err := s.dashboards.Balance(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, "balance", err)
		return
	}

	s.balanceCache.Set(userID, cents)
	respondJSON(w, http.StatusOK, map[string]float64{"balance": float64(cents) / 100.0})
}
