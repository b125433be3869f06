package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormType_Column(t *testing.T) {
	cols := map[FormType]string{
		FormNormal:     "normal",
		FormShiny:      "shiny",
		FormAlpha:      "alpha",
		FormAlphaShiny: "alpha_shiny",
	}
	for ft, want := range cols {
		got, err := ft.Column()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := FormType("alpha_shiny").Column()
	assert.Error(t, err)
}

func TestFamily_Pokedex(t *testing.T) {
	f := Family{Name: "dex-tracker", DefaultPokedex: "national"}
	assert.Equal(t, "national", f.Pokedex(""))
	assert.Equal(t, "kanto", f.Pokedex("kanto"))
}

func TestDefault(t *testing.T) {
	rec := Default("user-1", "national", 25)
	assert.Equal(t, FormStatus{}, rec.FormStatus)
	assert.Equal(t, 25, rec.PokemonID)
	assert.True(t, rec.UpdatedAt.IsZero())
}
