package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/infra/logging"
)

const maxBodyBytes = 1 << 20

// planRequest is the JSON body of create and update. Price accepts a JSON
// number or a decimal string.
type planRequest struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Duration     int              `json:"duration"`
	DurationUnit string           `json:"duration_unit"`
}

func (req planRequest) params() (model.PlanParams, error) {
	if req.Price == nil {
		verr := &domain.ValidationError{}
		verr.Add("price", "is required")
		return model.PlanParams{}, verr
	}
	return model.PlanParams{
		Name:         req.Name,
		Description:  req.Description,
		Price:        *req.Price,
		Duration:     req.Duration,
		DurationUnit: req.DurationUnit,
	}, nil
}

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

type listBody struct {
	Data []*model.Plan `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "plan not found"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "storage unavailable, retry later"})
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("unexpected plan error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodePlan(w http.ResponseWriter, r *http.Request) (model.PlanParams, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	var req planRequest
	if err := dec.Decode(&req); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("body", "must be a single JSON plan object")
		return model.PlanParams{}, verr
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		verr := &domain.ValidationError{}
		verr.Add("body", "must be a single JSON plan object")
		return model.PlanParams{}, verr
	}
	return req.params()
}

func (s *Server) plansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody{Data: plans})
}

func (s *Server) plansCreate(w http.ResponseWriter, r *http.Request) {
	params, err := decodePlan(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.plans.Create(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/plans/"+plan.ID)
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) plansGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) plansGetByName(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) plansUpdate(w http.ResponseWriter, r *http.Request) {
	params, err := decodePlan(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.plans.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) plansDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.plans.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Key string `json:"key"`
}

// adminLogin trades the API key for a session cookie carrying an admin JWT.
func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if !s.auth.CheckAPIKey(req.Key) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid key"})
		return
	}
	token, err := s.auth.Mint("admin")
	if err != nil {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "sessions are disabled"})
		return
	}
	s.auth.SetSessionCookie(w, token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
