package auth

import "github.com/google/uuid"

const RoleAdmin = "admin"

// Actor - аутентифицированный пользователь, от имени которого выполняется операция.
// IsAdmin вычисляется один раз на границе HTTP из роли в токене.
type Actor struct {
	UserID  uuid.UUID
	Role    string
	IsAdmin bool
}

func NewActor(userID uuid.UUID, role string) Actor {
	return Actor{UserID: userID, Role: role, IsAdmin: role == RoleAdmin}
}

func (a Actor) Is(userID uuid.UUID) bool {
	return a.UserID == userID
}
