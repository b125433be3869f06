package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"dextrack/internal/apperr"
	"dextrack/internal/auth"
	"dextrack/internal/http/response"
	"dextrack/internal/metrics"
	"dextrack/internal/tracker"
	"dextrack/internal/validate"
)

type TrackerStore interface {
	GetAll(ctx context.Context, userID, pokedex string) ([]tracker.Record, error)
	GetOne(ctx context.Context, userID, pokedex string, pokemonID int) (tracker.Record, bool, error)
	UpsertFormField(ctx context.Context, userID, pokedex string, pokemonID int, formType tracker.FormType, value bool) (tracker.Record, error)
	BatchUpsert(ctx context.Context, userID, pokedex string, updates []tracker.Update) []tracker.ItemResult
	Delete(ctx context.Context, userID, pokedex string, pokemonID int) error
	ResetPokedex(ctx context.Context, userID, pokedex string) (int64, error)
	Stats(ctx context.Context, userID, pokedex string) (tracker.Stats, error)
}

// TrackerHandler serves one tracker route family. Every family shares the
// same store; only the default pokedex differs.
type TrackerHandler struct {
	Family   tracker.Family
	Store    TrackerStore
	Valid    *validate.Validator
	Owner    auth.OwnerPolicy
	Log      zerolog.Logger
	MaxBatch int
}

func (h *TrackerHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/", h.Reset)
	r.Get("/stats", h.Stats)
	r.Post("/batch", h.Batch)
	r.Get("/{pokemonId}", h.Get)
	r.Put("/{pokemonId}", h.Put)
	r.Delete("/{pokemonId}", h.Delete)
}

type pokedexQuery struct {
	Pokedex string `json:"pokedex" validate:"omitempty,pokedex"`
}

type pokemonParams struct {
	PokemonID int    `json:"pokemonId" validate:"pokemonid"`
	Pokedex   string `json:"pokedex" validate:"omitempty,pokedex"`
}

type putFormReq struct {
	UserID   string `json:"userId" validate:"omitempty,max=128"`
	Pokedex  string `json:"pokedex" validate:"omitempty,pokedex"`
	FormType string `json:"formType" validate:"required,formtype"`
	Value    *bool  `json:"value" validate:"required"`
}

type batchReq struct {
	UserID  string      `json:"userId" validate:"omitempty,max=128"`
	Pokedex string      `json:"pokedex" validate:"omitempty,pokedex"`
	Updates []batchItem `json:"updates" validate:"required,min=1"`
}

// batchItem is checked per item by the store so one bad item cannot fail
// the request.
type batchItem struct {
	PokemonID int            `json:"pokemonId"`
	FormData  map[string]any `json:"formData"`
}

type appliedItem struct {
	Index     int            `json:"index"`
	PokemonID int            `json:"pokemonId"`
	Data      tracker.Record `json:"data"`
}

type failedItem struct {
	Index     int    `json:"index"`
	PokemonID int    `json:"pokemonId"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

type batchResult struct {
	Applied []appliedItem `json:"applied"`
	Failed  []failedItem  `json:"failed"`
}

// pokemonID parses {pokemonId}; non-numeric values become 0 so validation
// reports them with the other field errors.
func pokemonID(r *http.Request) int {
	id, err := strconv.Atoi(chi.URLParam(r, "pokemonId"))
	if err != nil {
		return 0
	}
	return id
}

func (h *TrackerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	q := pokedexQuery{Pokedex: r.URL.Query().Get("pokedex")}
	if err := h.Valid.Struct(q); err != nil {
		response.Err(w, r, err)
		return
	}

	recs, err := h.Store.GetAll(r.Context(), userID, h.Family.Pokedex(q.Pokedex))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if recs == nil {
		recs = []tracker.Record{}
	}
	response.Data(w, r, http.StatusOK, recs)
}

func (h *TrackerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	q := pokedexQuery{Pokedex: r.URL.Query().Get("pokedex")}
	if err := h.Valid.Struct(q); err != nil {
		response.Err(w, r, err)
		return
	}

	s, err := h.Store.Stats(r.Context(), userID, h.Family.Pokedex(q.Pokedex))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, r, http.StatusOK, s)
}

func (h *TrackerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	p := pokemonParams{PokemonID: pokemonID(r), Pokedex: r.URL.Query().Get("pokedex")}
	if err := h.Valid.Struct(p); err != nil {
		response.Err(w, r, err)
		return
	}
	pokedex := h.Family.Pokedex(p.Pokedex)

	rec, found, err := h.Store.GetOne(r.Context(), userID, pokedex, p.PokemonID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if !found {
		rec = tracker.Default(userID, pokedex, p.PokemonID)
	}
	response.Data(w, r, http.StatusOK, rec)
}

func (h *TrackerHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req putFormReq
	decodeErr := h.Valid.DecodeJSON(r, &req)
	p := pokemonParams{PokemonID: pokemonID(r)}
	if err := validate.Join(decodeErr, h.Valid.Struct(p)); err != nil {
		response.Err(w, r, err)
		return
	}
	userID, err := targetUser(r, h.Owner, req.UserID)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	rec, err := h.Store.UpsertFormField(r.Context(), userID, h.Family.Pokedex(req.Pokedex), p.PokemonID,
		tracker.FormType(req.FormType), *req.Value)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, r, http.StatusOK, rec)
}

func (h *TrackerHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := h.Valid.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}
	if h.MaxBatch > 0 && len(req.Updates) > h.MaxBatch {
		response.Err(w, r, apperr.Validation("request validation failed", apperr.FieldError{
			Field:   "updates",
			Message: fmt.Sprintf("updates must contain at most %d items", h.MaxBatch),
		}))
		return
	}
	userID, err := targetUser(r, h.Owner, req.UserID)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	updates := make([]tracker.Update, len(req.Updates))
	for i, it := range req.Updates {
		updates[i] = tracker.Update{PokemonID: it.PokemonID, FormData: it.FormData}
	}

	results := h.Store.BatchUpsert(r.Context(), userID, h.Family.Pokedex(req.Pokedex), updates)

	out := batchResult{Applied: []appliedItem{}, Failed: []failedItem{}}
	for _, res := range results {
		if res.OK() {
			out.Applied = append(out.Applied, appliedItem{Index: res.Index, PokemonID: res.PokemonID, Data: *res.Record})
			continue
		}
		out.Failed = append(out.Failed, h.failure(r, res))
	}

	metrics.BatchItemsTotal.WithLabelValues(h.Family.Name, "applied").Add(float64(len(out.Applied)))
	metrics.BatchItemsTotal.WithLabelValues(h.Family.Name, "failed").Add(float64(len(out.Failed)))

	response.Data(w, r, http.StatusOK, out)
}

// failure describes a failed item. Store errors are logged and reported
// without detail, like whole-request failures.
func (h *TrackerHandler) failure(r *http.Request, res tracker.ItemResult) failedItem {
	ae := apperr.From(res.Err)
	msg := ae.Message
	if apperr.HTTPStatus(ae.Code) >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(ae.Err).
			Str("family", h.Family.Name).
			Int("index", res.Index).
			Int("pokemon_id", res.PokemonID).
			Msg("batch item failed")
		msg = "item could not be saved"
	}
	return failedItem{Index: res.Index, PokemonID: res.PokemonID, Code: string(ae.Code), Error: msg}
}

func (h *TrackerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	p := pokemonParams{PokemonID: pokemonID(r), Pokedex: r.URL.Query().Get("pokedex")}
	if err := h.Valid.Struct(p); err != nil {
		response.Err(w, r, err)
		return
	}

	if err := h.Store.Delete(r.Context(), userID, h.Family.Pokedex(p.Pokedex), p.PokemonID); err != nil {
		response.Err(w, r, err)
		return
	}
	response.Message(w, r, http.StatusOK, "record deleted")
}

func (h *TrackerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	q := pokedexQuery{Pokedex: r.URL.Query().Get("pokedex")}
	if err := h.Valid.Struct(q); err != nil {
		response.Err(w, r, err)
		return
	}

	n, err := h.Store.ResetPokedex(r.Context(), userID, h.Family.Pokedex(q.Pokedex))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	h.Log.Info().Str("user_id", userID).Str("family", h.Family.Name).Int64("deleted", n).Msg("pokedex reset")
	response.Data(w, r, http.StatusOK, map[string]int64{"deleted": n})
}
