// Package categorize guesses a category for a statement row from its
// description, its type and an optional category column value.
package categorize

import (
	"strings"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

const (
	exactBonus    = 3
	fallbackToken = "outros"
)

// Suggest returns the id of the best category for a row, or "" when there
// are no active categories at all.
//
// The pool is the active categories whose default type equals typ, or every
// active category when none does. A hint is matched by exact code, exact
// name, then substring in either direction on code, then on name. Without a
// usable hint each candidate scores one point per name/code token found in
// the description, plus a bonus when the whole name or code appears in it.
// When nothing scores, an "outros" category or the first in the pool wins.
func Suggest(categories []models.Category, description string, typ models.TransactionType, hint string) string {
	active := models.ActiveCategories(categories)
	if len(active) == 0 {
		return ""
	}
	pool := make([]models.Category, 0, len(active))
	for _, c := range active {
		if c.DefaultType == typ {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = active
	}

	if h := textnorm.Search(hint); h != "" {
		if id := matchHint(pool, h); id != "" {
			return id
		}
	}

	desc := textnorm.Search(description)
	bestID, bestScore := "", 0
	for _, c := range pool {
		if s := score(c, desc); s > bestScore {
			bestID, bestScore = c.ID, s
		}
	}
	if bestScore > 0 {
		return bestID
	}

	for _, c := range pool {
		if strings.Contains(textnorm.Search(c.Name), fallbackToken) || strings.Contains(textnorm.Search(c.Code), fallbackToken) {
			return c.ID
		}
	}
	return pool[0].ID
}

func matchHint(pool []models.Category, hint string) string {
	for _, c := range pool {
		if textnorm.Search(c.Code) == hint {
			return c.ID
		}
	}
	for _, c := range pool {
		if textnorm.Search(c.Name) == hint {
			return c.ID
		}
	}
	for _, c := range pool {
		if overlaps(textnorm.Search(c.Code), hint) {
			return c.ID
		}
	}
	for _, c := range pool {
		if overlaps(textnorm.Search(c.Name), hint) {
			return c.ID
		}
	}
	return ""
}

func overlaps(a, b string) bool {
	if a == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func score(c models.Category, desc string) int {
	s := 0
	for _, tok := range append(textnorm.Tokens(c.Name), textnorm.Tokens(c.Code)...) {
		if strings.Contains(desc, tok) {
			s++
		}
	}
	name, code := textnorm.Search(c.Name), textnorm.Search(c.Code)
	if (name != "" && strings.Contains(desc, name)) || (code != "" && strings.Contains(desc, code)) {
		s += exactBonus
	}
	return s
}

// Find returns the category with id, if present.
func Find(categories []models.Category, id string) (models.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}
