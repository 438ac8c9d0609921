// Package export renders standings tables as spreadsheets and images.
package export

import (
	"github.com/lairofevil/standings/internal/domain/standings"
)

// Table is a ranked standings table ready for rendering.
type Table struct {
	Title    string
	Currency string
	Rows     []standings.Standing
	// Names maps subject ids to display names. Missing names fall back to
	// the id.
	Names map[string]string
}

func (t Table) name(id string) string {
	if n, ok := t.Names[id]; ok && n != "" {
		return n
	}
	return id
}
