package tracker

import (
	"fmt"
	"time"
)

// FormStatus is the four-flag completion record for one species. The flags
// are independent; every combination is storable.
type FormStatus struct {
	Normal     bool `gorm:"not null" json:"normal"`
	Shiny      bool `gorm:"not null" json:"shiny"`
	Alpha      bool `gorm:"not null" json:"alpha"`
	AlphaShiny bool `gorm:"not null" json:"alphaShiny"`
}

// Record is one user's progress for one pokemon inside one pokedex.
// (UserID, Pokedex, PokemonID) is the natural key.
type Record struct {
	ID         uint64     `gorm:"primaryKey" json:"-"`
	UserID     string     `gorm:"type:text;not null" json:"userId"`
	Pokedex    string     `gorm:"type:text;not null" json:"pokedex"`
	PokemonID  int        `gorm:"not null" json:"pokemonId"`
	FormStatus FormStatus `gorm:"embedded" json:"formStatus"`
	CreatedAt  time.Time  `gorm:"not null" json:"-"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Record) TableName() string { return "tracker_records" }

// MaxPokemonID bounds pokemon ids accepted on every write path.
const MaxPokemonID = 100000

// ValidPokemonID reports whether id is a trackable pokemon id.
func ValidPokemonID(id int) bool {
	return id > 0 && id <= MaxPokemonID
}

// Default is the shape returned for a triple that has no stored progress.
func Default(userID, pokedex string, pokemonID int) Record {
	return Record{UserID: userID, Pokedex: pokedex, PokemonID: pokemonID}
}

// FormType names one flag of FormStatus.
type FormType string

const (
	FormNormal     FormType = "normal"
	FormShiny      FormType = "shiny"
	FormAlpha      FormType = "alpha"
	FormAlphaShiny FormType = "alphaShiny"
)

// Column returns the storage column for the flag.
func (f FormType) Column() (string, error) {
	switch f {
	case FormNormal:
		return "normal", nil
	case FormShiny:
		return "shiny", nil
	case FormAlpha:
		return "alpha", nil
	case FormAlphaShiny:
		return "alpha_shiny", nil
	default:
		return "", fmt.Errorf("unknown form type %q", string(f))
	}
}

func (s *FormStatus) set(f FormType, v bool) {
	switch f {
	case FormNormal:
		s.Normal = v
	case FormShiny:
		s.Shiny = v
	case FormAlpha:
		s.Alpha = v
	case FormAlphaShiny:
		s.AlphaShiny = v
	}
}

// Update is one item of a batch: the flags present in FormData are merged
// into the stored record, absent flags keep their value.
type Update struct {
	PokemonID int            `json:"pokemonId"`
	FormData  map[string]any `json:"formData"`
}

// ItemResult is the outcome of one batch item. Exactly one of Record and Err
// is set.
type ItemResult struct {
	Index     int
	PokemonID int
	Record    *Record
	Err       error
}

func (r ItemResult) OK() bool { return r.Err == nil }

// Stats are aggregate counts over a user's records in one pokedex.
type Stats struct {
	Total      int64 `gorm:"column:total" json:"total"`
	Normal     int64 `gorm:"column:normal" json:"normal"`
	Shiny      int64 `gorm:"column:shiny" json:"shiny"`
	Alpha      int64 `gorm:"column:alpha" json:"alpha"`
	AlphaShiny int64 `gorm:"column:alpha_shiny" json:"alphaShiny"`
}
