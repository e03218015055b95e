package translate

import "github.com/rainycape/unidecode"

// Deunicode transliterates s to its nearest ASCII approximation. Used when
// the gateway's --ascii flag is set, either over the raw upstream JSON text
// (login pipeline, spec.md §4.1 step 3) or a single rendered field.
func Deunicode(s string) string {
	return unidecode.Unidecode(s)
}
