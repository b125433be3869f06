package tracker

// Family is one route family of the tracker API. Families differ only in the
// pokedex used when the caller does not name one.
type Family struct {
	Name           string
	DefaultPokedex string
}

// Families served by the API. legends-za-tracker is the older name of the
// legends-za routes and reads the same records.
var Families = []Family{
	{Name: "dex-tracker", DefaultPokedex: "national"},
	{Name: "legends-za", DefaultPokedex: "lumiose"},
	{Name: "legends-za-tracker", DefaultPokedex: "lumiose"},
}

// Pokedex returns requested, or the family default when it is empty.
func (f Family) Pokedex(requested string) string {
	if requested == "" {
		return f.DefaultPokedex
	}
	return requested
}
