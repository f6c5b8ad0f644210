package models

// Роли вызывающих. Роль не хранится в базе: она вычисляется при выпуске
// токена по сконфигурированному email администратора.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User описывает зарегистрированного пользователя.
type User struct {
	ID           int64  `db:"user_id" json:"user_id"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// Caller представляет проверенную личность вызывающего запроса.
type Caller struct {
	UserID int64
	Email  string
	Role   string
}

// IsAdmin возвращает true, если вызывающий — администратор.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
