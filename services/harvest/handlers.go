package harvest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"frequense-harvester/lib/scrapers/frequense"
)

// the JSON envelope is a fixed consumer contract: either
// {"error": "..."} or {"total": n, "<kind>": [...]}

type errorResponse struct {
	Error string `json:"error"`
}

type leadsResponse struct {
	Total int              `json:"total"`
	Leads []frequense.Lead `json:"leads"`
}

type prospectsResponse struct {
	Total     int                  `json:"total"`
	Prospects []frequense.Prospect `json:"prospects"`
}

type customersResponse struct {
	Total     int                  `json:"total"`
	Customers []frequense.Customer `json:"customers"`
}

func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /leads", s.handleLeads)
	mux.HandleFunc("POST /prospects", s.handleProspects)
	mux.HandleFunc("POST /customers", s.handleCustomers)
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /{$}", s.handleRoot)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

func decodeHarvestRequest(w http.ResponseWriter, r *http.Request) (HarvestRequest, bool) {
	var req HarvestRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return HarvestRequest{}, false
	}
	return req, true
}

func (s Service) handleLeads(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHarvestRequest(w, r)
	if !ok {
		return
	}

	leads, err := s.Leads(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, leadsResponse{
		Total: len(leads),
		Leads: leads,
	})
}

func (s Service) handleProspects(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHarvestRequest(w, r)
	if !ok {
		return
	}

	prospects, err := s.Prospects(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, prospectsResponse{
		Total:     len(prospects),
		Prospects: prospects,
	})
}

func (s Service) handleCustomers(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHarvestRequest(w, r)
	if !ok {
		return
	}

	customers, err := s.Customers(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, customersResponse{
		Total:     len(customers),
		Customers: customers,
	})
}

type runResponse struct {
	Kind       string `json:"kind"`
	Total      int    `json:"total"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Time       int64  `json:"time"`
}

func (s Service) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.RecentRuns(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			Kind:       run.Kind,
			Total:      run.Total,
			DurationMs: run.Duration.Milliseconds(),
			Error:      run.Error,
			Time:       run.Time.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(out),
		"runs":  out,
	})
}

func (s Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Frequense harvester is running",
	})
}
