package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/asaidimu/go-filterable/core/schema"
)

// APIResponse represents the consistent envelope pattern for all API responses
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError represents error details in API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ListResponse is the data of a listing response.
type ListResponse struct {
	Resource string            `json:"resource"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	PageSize int               `json:"page_size"`
	Rows     []schema.Document `json:"rows"`
}

// handleAPIList serves GET /api/{resource}.
func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	d, err := s.registry.Lookup(resource)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource '"+resource+"' not found", "")
		return
	}

	l, err := s.list(r, d)
	if err != nil {
		s.logger.Error("Failed to list resource",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("resource", resource),
			zap.Error(err),
		)
		if errors.Is(err, ErrUnknownResource) {
			s.writeErrorResponse(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource '"+resource+"' not found", err.Error())
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "QUERY_FAILED", "Failed to query documents", err.Error())
		return
	}

	s.writeSuccessResponse(w, http.StatusOK, ListResponse{
		Resource: d.Resource,
		Total:    l.Total,
		Page:     l.Page,
		Pages:    l.Pages,
		PageSize: l.PageSize,
		Rows:     l.Rows,
	})
}

// writeSuccessResponse writes a successful API response
func (s *Server) writeSuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	s.writeJSONResponse(w, statusCode, APIResponse{Success: true, Data: data})
}

// writeErrorResponse writes an error API response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, code, message, details string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	s.writeJSONResponse(w, statusCode, response)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
