package auth

import (
	"context"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// UseCase describes authentication behavior.
type UseCase interface {
	Login(ctx context.Context, username, password string) (AuthResult, error)
	// Verify проверяет учётные данные без выпуска токена —
	// для системных вызовов по Basic-авторизации.
	Verify(ctx context.Context, username, password string) (Identity, error)
}

type AuthResult struct {
	Identity Identity
	Token    string
}

type service struct {
	username     string
	passwordHash []byte
	tokens       TokenGenerator
}

// NewService хэширует админский пароль при старте, чтобы не держать
// его в памяти открытым текстом всё время работы процесса.
func NewService(username, password string, tokens TokenGenerator) (UseCase, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &service{username: username, passwordHash: hash, tokens: tokens}, nil
}

func (s *service) Verify(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}
	// оба сравнения выполняются всегда, чтобы ответ не выдавал, какое поле неверно
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	if !usernameOK || !passwordOK {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: s.username, IsAdmin: true}, nil
}

func (s *service) Login(ctx context.Context, username, password string) (AuthResult, error) {
	identity, err := s.Verify(ctx, username, password)
	if err != nil {
		return AuthResult{}, err
	}
	token, err := s.tokens.Generate(ctx, identity)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Identity: identity, Token: token}, nil
}
