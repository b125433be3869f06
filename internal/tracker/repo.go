package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dextrack/internal/apperr"
)

var naturalKey = []clause.Column{{Name: "user_id"}, {Name: "pokedex"}, {Name: "pokemon_id"}}

// Repo persists tracker records. Absence is never an error: GetOne reports
// found=false and Delete of a missing record succeeds.
type Repo struct {
	DB  *gorm.DB
	Log zerolog.Logger

	// Now is the write clock; defaults to time.Now in UTC.
	Now func() time.Time
}

// Migrate creates the tracker table and its natural-key index.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&Record{}); err != nil {
		return err
	}
	return gdb.Exec(`create unique index if not exists uq_tracker_records_natural
on tracker_records(user_id, pokedex, pokemon_id);`).Error
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Repo) GetAll(ctx context.Context, userID, pokedex string) ([]Record, error) {
	var out []Record
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND pokedex = ?", userID, pokedex).
		Order("pokemon_id asc").
		Find(&out).Error; err != nil {
		return nil, apperr.Persistence("tracker.GetAll", err)
	}
	return out, nil
}

func (r *Repo) GetOne(ctx context.Context, userID, pokedex string, pokemonID int) (Record, bool, error) {
	var rec Record
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND pokedex = ? AND pokemon_id = ?", userID, pokedex, pokemonID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, apperr.Persistence("tracker.GetOne", err)
	}
	return rec, true, nil
}

// UpsertFormField sets one flag, creating the record with the other flags
// false when it does not exist yet.
func (r *Repo) UpsertFormField(ctx context.Context, userID, pokedex string, pokemonID int, formType FormType, value bool) (Record, error) {
	if !ValidPokemonID(pokemonID) {
		msg := fmt.Sprintf("pokemonId must be between 1 and %d", MaxPokemonID)
		return Record{}, apperr.Validation(msg, apperr.FieldError{Field: "pokemonId", Message: msg})
	}
	col, err := formType.Column()
	if err != nil {
		return Record{}, apperr.Validation(err.Error(), apperr.FieldError{Field: "formType", Message: err.Error()})
	}

	var status FormStatus
	status.set(formType, value)

	return r.upsert(ctx, userID, pokedex, pokemonID, status, []string{col})
}

// BatchUpsert applies each update independently and in order. A failing item
// does not stop the batch; a cancelled context fails every item not yet
// applied.
func (r *Repo) BatchUpsert(ctx context.Context, userID, pokedex string, updates []Update) []ItemResult {
	results := make([]ItemResult, 0, len(updates))

	for i, u := range updates {
		res := ItemResult{Index: i, PokemonID: u.PokemonID}

		if err := ctx.Err(); err != nil {
			res.Err = apperr.Internal("batch cancelled before item was applied", err)
			results = append(results, res)
			continue
		}

		rec, err := r.applyUpdate(ctx, userID, pokedex, u)
		if err != nil {
			res.Err = err
		} else {
			res.Record = &rec
		}
		results = append(results, res)
	}

	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}
	r.Log.Debug().
		Str("user_id", userID).
		Str("pokedex", pokedex).
		Int("items", len(updates)).
		Int("failed", failed).
		Msg("tracker batch applied")

	return results
}

func (r *Repo) applyUpdate(ctx context.Context, userID, pokedex string, u Update) (Record, error) {
	if !ValidPokemonID(u.PokemonID) {
		return Record{}, apperr.Validation(fmt.Sprintf("pokemonId must be between 1 and %d", MaxPokemonID))
	}
	status, cols, err := parseFormData(u.FormData)
	if err != nil {
		return Record{}, err
	}
	return r.upsert(ctx, userID, pokedex, u.PokemonID, status, cols)
}

// parseFormData returns the flags named in data and their columns, sorted
// so the generated SQL is stable.
func parseFormData(data map[string]any) (FormStatus, []string, error) {
	var status FormStatus
	if len(data) == 0 {
		return status, nil, apperr.Validation("formData must set at least one form")
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, 0, len(keys))
	for _, k := range keys {
		ft := FormType(k)
		col, err := ft.Column()
		if err != nil {
			return status, nil, apperr.Validation(err.Error())
		}
		v, ok := data[k].(bool)
		if !ok {
			return status, nil, apperr.Validation(fmt.Sprintf("formData.%s must be a boolean", k))
		}
		status.set(ft, v)
		cols = append(cols, col)
	}
	return status, cols, nil
}

// upsert inserts the record or, on a natural-key conflict, overwrites only
// cols and updated_at.
func (r *Repo) upsert(ctx context.Context, userID, pokedex string, pokemonID int, status FormStatus, cols []string) (Record, error) {
	now := r.now()
	rec := Record{
		UserID:     userID,
		Pokedex:    pokedex,
		PokemonID:  pokemonID,
		FormStatus: status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	assign := make([]string, 0, len(cols)+1)
	assign = append(assign, cols...)
	assign = append(assign, "updated_at")

	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   naturalKey,
		DoUpdates: clause.AssignmentColumns(assign),
	}).Create(&rec).Error; err != nil {
		return Record{}, apperr.Persistence("tracker.Upsert", err)
	}

	r.Log.Debug().
		Str("user_id", userID).
		Str("pokedex", pokedex).
		Int("pokemon_id", pokemonID).
		Strs("columns", cols).
		Msg("tracker upsert")

	got, found, err := r.GetOne(ctx, userID, pokedex, pokemonID)
	if err != nil {
		return Record{}, err
	}
	if !found {
		// deleted by a concurrent request between the write and the read
		return rec, nil
	}
	return got, nil
}

// Delete removes the record. Missing records are not an error.
func (r *Repo) Delete(ctx context.Context, userID, pokedex string, pokemonID int) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND pokedex = ? AND pokemon_id = ?", userID, pokedex, pokemonID).
		Delete(&Record{})
	if res.Error != nil {
		return apperr.Persistence("tracker.Delete", res.Error)
	}
	r.Log.Debug().
		Str("user_id", userID).
		Str("pokedex", pokedex).
		Int("pokemon_id", pokemonID).
		Int64("rows", res.RowsAffected).
		Msg("tracker delete")
	return nil
}

// ResetPokedex removes every record the user has in pokedex.
func (r *Repo) ResetPokedex(ctx context.Context, userID, pokedex string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND pokedex = ?", userID, pokedex).
		Delete(&Record{})
	if res.Error != nil {
		return 0, apperr.Persistence("tracker.ResetPokedex", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repo) Stats(ctx context.Context, userID, pokedex string) (Stats, error) {
	var s Stats
	if err := r.DB.WithContext(ctx).Model(&Record{}).
		Select(`count(*) as total,
coalesce(sum(case when normal then 1 else 0 end), 0) as normal,
coalesce(sum(case when shiny then 1 else 0 end), 0) as shiny,
coalesce(sum(case when alpha then 1 else 0 end), 0) as alpha,
coalesce(sum(case when alpha_shiny then 1 else 0 end), 0) as alpha_shiny`).
		Where("user_id = ? AND pokedex = ?", userID, pokedex).
		Scan(&s).Error; err != nil {
		return Stats{}, apperr.Persistence("tracker.Stats", err)
	}
	return s, nil
}
