// Package api is the thin HTTP glue between the bot layer and the engine.
// Handlers translate requests into engine calls and engine errors into
// status codes; no search or entitlement logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"mediadex/pkg/entitlement"
	"mediadex/pkg/fileid"
	"mediadex/pkg/ingest"
	"mediadex/pkg/logger"
	"mediadex/pkg/models"
	"mediadex/pkg/query"
	"mediadex/pkg/search"
	"mediadex/pkg/session"
	"mediadex/pkg/settings"
	"mediadex/pkg/store"
	"mediadex/pkg/telemetry"
	"mediadex/pkg/utils"
)

// Pressure reports whether the store is refusing new writes.
type Pressure interface {
	Degraded() bool
}

// Deps carries the engine services the handlers operate on.
type Deps struct {
	Coordinator  *search.Coordinator
	Entitlements *entitlement.Service
	Settings     *settings.Service
	Sessions     *session.Cache
	Monitor      Pressure
	AdminKeys    map[string]struct{}
	RateRPS      float64
	RateBurst    int
}

type server struct {
	d       Deps
	limiter *limiterPool
}

// Handler returns the engine's HTTP handler.
func Handler(d Deps) http.Handler {
	s := &server{d: d, limiter: newLimiterPool(d.RateRPS, d.RateBurst)}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(openAPIDoc))
	}).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))).Methods(http.MethodGet)

	r.HandleFunc("/v1/search", s.requireCaller(s.handleSearch)).Methods(http.MethodGet)
	r.HandleFunc("/v1/search/{key}/shard", s.requireCaller(s.handleSwitchShard)).Methods(http.MethodPost)
	r.HandleFunc("/v1/files/{id}", s.requireCaller(s.handleLookup)).Methods(http.MethodGet)

	r.HandleFunc("/v1/files", s.requireAdmin(s.handleIngest)).Methods(http.MethodPost)
	r.HandleFunc("/v1/files", s.requireAdmin(s.handlePurge)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/files/relocate", s.requireAdmin(s.handleRelocate)).Methods(http.MethodPost)
	r.HandleFunc("/v1/stats", s.requireAdmin(s.handleStats)).Methods(http.MethodGet)

	r.HandleFunc("/v1/entitlements/{subject}", s.requireAdmin(s.handleGrant)).Methods(http.MethodPost)
	r.HandleFunc("/v1/entitlements/{subject}", s.requireAdmin(s.handleRevoke)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/entitlements/{subject}", s.requireAdmin(s.handleGetEntitlement)).Methods(http.MethodGet)

	r.HandleFunc("/v1/chats/{id}/settings", s.requireAdmin(s.handleGetSettings)).Methods(http.MethodGet)
	r.HandleFunc("/v1/chats/{id}/settings", s.requireAdmin(s.handlePatchSettings)).Methods(http.MethodPatch)

	return r
}

func (s *server) callerKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	return r.RemoteAddr
}

func (s *server) isAdmin(r *http.Request) bool {
	k := r.Header.Get("X-API-Key")
	if k == "" {
		return false
	}
	_, ok := s.d.AdminKeys[k]
	return ok
}

// requireAdmin gates mutating and administrative routes behind an admin API
// key, after rate limiting.
func (s *server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(s.callerKey(r)) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if !s.isAdmin(r) {
			utils.JSONError(w, http.StatusForbidden, "admin key required")
			return
		}
		next(w, r)
	}
}

// requireCaller gates search routes: admins pass, everyone else needs an
// entitled subject. The lazy-expiry check inside IsEntitled keeps grant
// boundaries honest between background sweeps.
func (s *server) requireCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(s.callerKey(r)) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.isAdmin(r) {
			next(w, r)
			return
		}
		subject := r.Header.Get("X-Subject")
		if subject == "" {
			utils.JSONError(w, http.StatusForbidden, "subject or admin key required")
			return
		}
		ok, err := s.d.Entitlements.IsEntitled(r.Context(), subject)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			utils.JSONError(w, http.StatusForbidden, "no active entitlement")
			return
		}
		next(w, r)
	}
}

type fileDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	HumanSize string `json:"human_size"`
	Caption   string `json:"caption,omitempty"`
}

func toDTO(rec models.FileRecord) fileDTO {
	return fileDTO{ID: rec.ID, Name: rec.Name, Size: rec.Size, HumanSize: rec.HumanSize(), Caption: rec.Caption}
}

type searchResponse struct {
	Records    []fileDTO `json:"records"`
	NextOffset int       `json:"next_offset"`
	Total      int       `json:"total"`
	Shard      string    `json:"shard"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

func toSearchResponse(res search.Result) searchResponse {
	out := searchResponse{
		Records:    make([]fileDTO, 0, len(res.Records)),
		NextOffset: res.NextOffset,
		Total:      res.Total,
		Shard:      string(res.EffectiveShard),
		Page:       res.Page,
		TotalPages: res.TotalPages,
	}
	for _, rec := range res.Records {
		out.Records = append(out.Records, toDTO(rec))
	}
	return out
}

func (s *server) writeSearchResult(w http.ResponseWriter, res search.Result, err error) {
	switch {
	case errors.Is(err, search.ErrSessionExpired):
		utils.JSONError(w, http.StatusGone, "search session expired, search again")
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	default:
		telemetry.LiveSessions.Set(float64(s.d.Sessions.Len()))
		_ = utils.JSONWrite(w, http.StatusOK, toSearchResponse(res))
	}
}

// handleSearch starts a search (offset absent or 0 with q present) or pages
// an existing session.
func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	key := qp.Get("key")
	if key == "" {
		utils.JSONError(w, http.StatusBadRequest, "key is required")
		return
	}
	sel, err := store.ParseShard(qp.Get("shard"), true)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset := 0
	if v := qp.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			utils.JSONError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}
	if offset == 0 && qp.Has("q") {
		res, err := s.d.Coordinator.Start(r.Context(), key, qp.Get("q"), sel)
		telemetry.SearchesTotal.WithLabelValues("start").Inc()
		s.writeSearchResult(w, res, err)
		return
	}
	res, err := s.d.Coordinator.NextPage(r.Context(), key, offset, sel)
	telemetry.SearchesTotal.WithLabelValues("page").Inc()
	s.writeSearchResult(w, res, err)
}

func (s *server) handleSwitchShard(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	var body struct {
		Shard string `json:"shard"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sel, err := store.ParseShard(body.Shard, true)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.d.Coordinator.SwitchShard(r.Context(), key, sel)
	telemetry.SearchesTotal.WithLabelValues("shard_switch").Inc()
	s.writeSearchResult(w, res, err)
}

func (s *server) handleLookup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, shard, err := store.GetFileByID(id)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		fileDTO
		Shard string `json:"shard"`
	}{toDTO(rec), string(shard)})
}

func (s *server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.d.Monitor != nil && s.d.Monitor.Degraded() {
		utils.JSONError(w, http.StatusInsufficientStorage, "store under disk pressure, ingest paused")
		return
	}
	var body struct {
		fileid.MediaReference
		Name    string `json:"name"`
		Size    int64  `json:"size"`
		Caption string `json:"caption"`
		Shard   string `json:"shard"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	shard, err := store.ParseShard(body.Shard, false)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := ingest.Ingest(ingest.Request{
		Ref:     body.MediaReference,
		Name:    body.Name,
		Size:    body.Size,
		Caption: body.Caption,
	}, shard)
	if errors.Is(err, fileid.ErrInvalidMediaReference) {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusCreated
	if outcome == ingest.Duplicate {
		status = http.StatusOK
	}
	_ = utils.JSONWrite(w, status, map[string]string{"outcome": string(outcome)})
}

func (s *server) handlePurge(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	sel, err := store.ParseShard(qp.Get("shard"), true)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !qp.Has("q") {
		utils.JSONError(w, http.StatusBadRequest, "q is required")
		return
	}
	pred := query.Compile(qp.Get("q"))
	perShard, total, err := store.DeleteMatching(r.Context(), pred, sel)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("purge_completed", "query", qp.Get("q"), "selector", sel, "removed", total)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"removed": total, "per_shard": perShard})
}

func (s *server) handleRelocate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"q"`
		From  string `json:"from"`
		To    string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	from, err := store.ParseShard(body.From, false)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := store.ParseShard(body.To, false)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	moved, err := store.MoveMatching(r.Context(), query.Compile(body.Query), from, to)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"moved": moved})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, total, err := store.CountAll()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	telemetry.RefreshStoreGauges()
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"per_shard":     counts,
		"total":         total,
		"live_sessions": s.d.Sessions.Len(),
		"disk_bytes":    store.DiskUsage(),
	})
}

func (s *server) handleGrant(w http.ResponseWriter, r *http.Request) {
	subject := mux.Vars(r)["subject"]
	var body struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	e, err := s.d.Entitlements.Grant(subject, body.Days)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, e)
}

func (s *server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Entitlements.Revoke(mux.Vars(r)["subject"]); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (s *server) handleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	subject := mux.Vars(r)["subject"]
	e, err := s.d.Entitlements.Get(subject)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entitled, err := s.d.Entitlements.IsEntitled(r.Context(), subject)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	remaining := ""
	if entitled && e.ExpiresAt != nil {
		remaining = utils.ReadableTime(time.Until(*e.ExpiresAt))
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		models.Entitlement
		Entitled  bool   `json:"entitled"`
		Remaining string `json:"remaining,omitempty"`
	}{e, entitled, remaining})
}

func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cs, err := s.d.Settings.Get(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, cs)
}

func (s *server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	cs, err := s.d.Settings.Update(mux.Vars(r)["id"], func(cur *models.ChatSettings) {
		applySettingsPatch(cur, patch)
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, cs)
}

func applySettingsPatch(cur *models.ChatSettings, patch map[string]json.RawMessage) {
	setBool := func(key string, dst *bool) {
		if raw, ok := patch[key]; ok {
			var v bool
			if json.Unmarshal(raw, &v) == nil {
				*dst = v
			}
		}
	}
	setBool("search_enabled", &cur.SearchEnabled)
	setBool("auto_delete", &cur.AutoDelete)
	setBool("file_secure", &cur.FileSecure)
	if raw, ok := patch["caption"]; ok {
		var v string
		if json.Unmarshal(raw, &v) == nil {
			cur.Caption = v
		}
	}
	if raw, ok := patch["blacklist"]; ok {
		var v []string
		if json.Unmarshal(raw, &v) == nil {
			for i := range v {
				v[i] = strings.TrimSpace(v[i])
			}
			cur.Blacklist = v
		}
	}
}
