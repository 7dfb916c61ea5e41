package models

// Actor — аутентифицированный пользователь, выполняющий запрос.
type Actor struct {
	UserID int
	Email  string
	Role   string
}

// IsAdmin сообщает, что действующий пользователь — администратор.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanModify сообщает, может ли пользователь менять ресурс владельца ownerID:
// администратор может всё, остальные только своё.
func (a Actor) CanModify(ownerID int) bool {
	return a.IsAdmin() || (a.UserID > 0 && a.UserID == ownerID)
}
