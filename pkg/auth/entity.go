package auth

import "errors"

var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity — аутентифицированный субъект. Пользовательской базы нет:
// доступ выдаётся единственному администратору из конфигурации.
type Identity struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}
