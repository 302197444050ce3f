package models

// All lists every model, in dependency order, for sqlite schema bootstrap.
func All() []any {
	return []any{
		&Identity{},
		&Profile{},
		&ActivityLog{},
		&Product{},
		&Ticket{},
	}
}
