package entity

import "time"

// Warehouse bodega de una empresa. Las transformaciones consumen y producen
// siempre en la misma bodega de origen.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BelongsTo indica si la bodega es de la empresa.
func (w *Warehouse) BelongsTo(companyID string) bool {
	return w.CompanyID == companyID
}

// AcceptsMovements una bodega inactiva conserva su historial pero no admite nuevos movimientos.
func (w *Warehouse) AcceptsMovements() bool {
	return w.IsActive
}
