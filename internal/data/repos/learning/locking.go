package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports row locks.
// SQLite serializes writers on its own, so the clause is skipped there.
func forUpdate(t *gorm.DB) *gorm.DB {
	if t == nil || t.Dialector == nil {
		return t
	}
	switch t.Dialector.Name() {
	case "postgres", "mysql":
		return t.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return t
	}
}
