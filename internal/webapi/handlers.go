package webapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/visionrag/ragview/internal/dashboard"
	"github.com/visionrag/ragview/internal/metrics"
	"github.com/visionrag/ragview/internal/models"
	"github.com/visionrag/ragview/internal/query"
	"github.com/visionrag/ragview/internal/snapshot"
)

// Version is set at build time or defaults to dev.
var Version = "0.2.0"

// maxUploadBytes bounds the import request body.
const maxUploadBytes = 256 * 1024 * 1024

// Handlers holds the HTTP handler methods for the viewer API.
type Handlers struct {
	store *DataStore
}

// NewHandlers creates Handlers over the given data store.
func NewHandlers(store *DataStore) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers all viewer API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store *DataStore) {
	h := NewHandlers(store)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/groups", h.HandleGroups)
	mux.HandleFunc("GET /api/summary", h.HandleSummary)
	mux.HandleFunc("POST /api/evaluations", h.HandleSetEvaluation)
	mux.HandleFunc("DELETE /api/evaluations", h.HandleClearEvaluations)
	mux.HandleFunc("GET /api/export", h.HandleExport)
	mux.HandleFunc("POST /api/import", h.HandleImport)
	mux.HandleFunc("GET /api/events", h.HandleEvents)
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// filtersFromQuery reads the AND-combined filter set from query params.
func filtersFromQuery(r *http.Request) query.Filters {
	q := r.URL.Query()
	f := query.Filters{
		Model:    q.Get("model"),
		Provider: q.Get("provider"),
	}
	if v := q.Get("context"); v != "" {
		f.Context = query.ContextFilter(v)
	}
	if v := q.Get("impact"); v != "" {
		f.Impact = query.ImpactFilter(v)
	}
	return f
}

// HandleGroups returns grouped units with derived metrics, filtered and
// sorted per query params.
func (h *Handlers) HandleGroups(w http.ResponseWriter, r *http.Request) {
	evals := h.store.Evals()
	units := query.Apply(h.store.Units(), filtersFromQuery(r), evals)

	if field := r.URL.Query().Get("sort"); field != "" {
		dir := query.Direction(r.URL.Query().Get("order"))
		if dir != query.DirectionDesc {
			dir = query.DirectionAsc
		}
		units = query.Sort(units, query.SortField(field), dir, evals)
	}

	resp := GroupsResponse{Total: len(units), Groups: make([]GroupView, 0, len(units))}
	for _, unit := range units {
		resp.Groups = append(resp.Groups, groupView(unit, evals))
	}
	writeJSON(w, http.StatusOK, resp)
}

// groupView assembles the API shape for one grouped unit.
func groupView(g *models.GroupedUnit, evals metrics.RatingSource) GroupView {
	view := GroupView{
		GroupID:           g.GroupID,
		ItemID:            g.ItemID,
		ModelName:         g.ModelName,
		EmbeddingProvider: g.EmbeddingProvider,
		ImageURL:          g.ImageURL,
		QuestionText:      g.QuestionText,
		ExpectedAnswer:    g.ExpectedAnswer,
		SimilarityBucket:  string(metrics.GroupSimilarityBucket(g)),
	}
	if g.WithContext != nil {
		view.SimilarItems = g.WithContext.SimilarItems
	}

	view.With = memberView(g, models.ModeWith, evals)
	view.Without = memberView(g, models.ModeWithout, evals)

	if score := metrics.CorrectnessScore(g, evals); score != metrics.Unrated {
		view.CorrectnessScore = &score
	}
	if delta, ok := metrics.ContextImpact(g, evals); ok {
		view.ContextImpact = &delta
		view.ImpactLabel = metrics.ImpactLabel(delta)
	}
	return view
}

func memberView(g *models.GroupedUnit, mode models.ContextMode, evals metrics.RatingSource) *MemberView {
	rec := g.Member(mode)
	if rec == nil {
		return nil
	}
	view := &MemberView{
		ResponseText:          rec.Response(),
		PromptText:            rec.PromptText,
		ProcessingTimeSeconds: rec.ProcessingTimeSeconds,
		WordCount:             metrics.WordCount(rec.Response()),
		Conciseness:           string(metrics.ConcisenessClass(rec.ResponseText)),
	}
	if rec.Error != nil {
		view.Error = *rec.Error
	}
	if c, ok := evals.Evaluation(g, mode); ok {
		view.Evaluation = string(c)
	}
	return view
}

// HandleSummary returns the dashboard aggregation over the filtered set.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	evals := h.store.Evals()
	units := query.Apply(h.store.Units(), filtersFromQuery(r), evals)
	writeJSON(w, http.StatusOK, dashboard.Compute(units, evals))
}

// HandleSetEvaluation applies one rating mutation with toggle semantics.
func (h *Handlers) HandleSetEvaluation(w http.ResponseWriter, r *http.Request) {
	var req EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode := models.ContextMode(req.Context)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "context must be \"with\" or \"without\"")
		return
	}
	category := models.Category(req.Category)
	if !category.Valid() {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	unit, err := h.store.FindGroup(req.GroupID)
	if errors.Is(err, ErrGroupNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	removed, err := h.store.Evals().Set(unit, mode, category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := EvaluationResponse{GroupID: req.GroupID, Context: req.Context, Removed: removed}
	if !removed {
		resp.Category = req.Category
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClearEvaluations empties the scoring store.
func (h *Handlers) HandleClearEvaluations(w http.ResponseWriter, _ *http.Request) {
	if err := h.store.Evals().ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport streams a snapshot of the current dataset and scoring state.
func (h *Handlers) HandleExport(w http.ResponseWriter, _ *http.Request) {
	snap := snapshot.Build(h.store.Records(), h.store.Evals())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+snapshot.Filename(time.Now()))
	if err := snapshot.Write(w, snap); err != nil {
		// Headers are gone at this point; nothing more to report.
		return
	}
}

// HandleImport accepts a JSONL record file or an export snapshot. The
// upload is adopted atomically: any parse failure leaves current state
// untouched.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	result, err := snapshot.Read(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Scoring state commits first; ReplaceAll leaves the store untouched on
	// a persist failure, so an error here means nothing was adopted.
	if err := h.store.Evals().ReplaceAll(result.Evaluations); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.store.ReplaceRecords(result.Records)

	writeJSON(w, http.StatusOK, ImportResponse{
		Records:     len(result.Records),
		Evaluations: len(result.Evaluations),
		Warnings:    result.Warnings,
	})
}

// HandleEvents streams scoring-store change notifications as server-sent
// events so table and dashboard views re-render without polling.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	changed := make(chan struct{}, 1)
	unsubscribe := h.store.Evals().Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Initial event so clients know the stream is live.
	io.WriteString(w, "event: ready\ndata: {}\n\n") //nolint:errcheck
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-changed:
			if _, err := io.WriteString(w, "event: change\ndata: {}\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// CORSMiddleware wraps a handler with CORS headers. If allowedOrigins is
// empty, no CORS header is set (same-origin only).
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
