package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/docsearch/documenter-mcp/internal/api/middleware"
	"github.com/docsearch/documenter-mcp/internal/docsearch"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
)

type HealthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Index   *docsearch.Stats `json:"index,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type FragmentsResponse struct {
	Location  string          `json:"location"`
	Fragments []docsearch.Hit `json:"fragments"`
}

type PagesResponse struct {
	Pages []searchindex.Page `json:"pages"`
}

type Handler struct {
	service *docsearch.Service
	version string
	logger  *zerolog.Logger
}

func NewHandler(service *docsearch.Service, version string, logger *zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		version: version,
		logger:  logger,
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	stats, err := h.service.Stats(req.Request.Context())
	if err != nil {
		resp.WriteHeaderAndEntity(http.StatusServiceUnavailable, HealthResponse{
			Status:  "unavailable",
			Version: h.version,
			Error:   err.Error(),
		})
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Index:   &stats,
	})
}

// GET /api/v1/search?q=&mode=&limit=
// Returns: docsearch.Results
func (h *Handler) Search(req *restful.Request, resp *restful.Response) {
	query := req.QueryParameter("q")

	mode, err := docsearch.ParseMode(req.QueryParameter("mode"))
	if err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	limit := 0
	if limitStr := req.QueryParameter("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			middleware.HandleError(resp, fmt.Errorf("invalid limit %q", limitStr), http.StatusBadRequest)
			return
		}
	}

	results, err := h.service.Lookup(req.Request.Context(), mode, query, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("Search failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Debug().
		Str("query", query).
		Str("mode", string(mode)).
		Int("hits", results.Total).
		Msg("Search complete")

	resp.WriteHeaderAndEntity(http.StatusOK, results)
}

// GET /api/v1/fragments?location=
// The empty location is valid (the site root), so only a missing parameter
// is rejected.
func (h *Handler) Fragments(req *restful.Request, resp *restful.Response) {
	if !req.Request.URL.Query().Has("location") {
		middleware.HandleError(resp, errors.New("missing location parameter"), http.StatusBadRequest)
		return
	}
	location := req.QueryParameter("location")

	hits, err := h.service.Fragments(req.Request.Context(), location)
	if err != nil {
		if errors.Is(err, searchindex.ErrNotFound) {
			middleware.HandleError(resp, err, http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("location", location).Msg("Fragment lookup failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, FragmentsResponse{Location: location, Fragments: hits})
}

// GET /api/v1/pages
func (h *Handler) Pages(req *restful.Request, resp *restful.Response) {
	pages, err := h.service.Pages(req.Request.Context())
	if err != nil {
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, PagesResponse{Pages: pages})
}

// POST /api/v1/refresh?force=
func (h *Handler) Refresh(req *restful.Request, resp *restful.Response) {
	force := false
	if forceStr := req.QueryParameter("force"); forceStr != "" {
		parsed, err := strconv.ParseBool(forceStr)
		if err != nil {
			middleware.HandleError(resp, fmt.Errorf("invalid force %q", forceStr), http.StatusBadRequest)
			return
		}
		force = parsed
	}

	result, err := h.service.Refresh(req.Request.Context(), force)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, docsearch.ErrNoSource):
			status = http.StatusConflict
		case errors.Is(err, searchindex.ErrMalformedInput):
			status = http.StatusUnprocessableEntity
		}
		h.logger.Error().Err(err).Bool("force", force).Msg("Refresh failed")
		middleware.HandleError(resp, err, status)
		return
	}

	h.logger.Info().
		Bool("updated", result.Updated).
		Bool("changed", result.Changed).
		Int("records", result.RecordsIndexed).
		Msg("Refresh complete")

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}
