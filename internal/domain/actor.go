package domain

// Actor identifica a quien ejecuta una operación. Se construye por request a partir del JWT
// y se pasa explícitamente a los casos de uso.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin indica si el actor tiene rol administrador.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}
