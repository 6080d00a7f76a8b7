package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"grocery/internal/repository"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = errors.New("email already used")
)

const minPasswordLen = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthValidator struct {
	users repository.UserRepository
}

func NewAuthValidator(users repository.UserRepository) *AuthValidator {
	return &AuthValidator{users: users}
}

// サインアップの入力を検証
func (v *AuthValidator) ValidateRegister(ctx context.Context, username string, email string, password string) error {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	// 必須チェック
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > 100 {
		return fmt.Errorf("%w: username too long", ErrInvalidInput)
	}

	// email形式
	if !isEmailLike(email) {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	// パスワード最低文字数
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	// email重複チェック（同時登録はDBのunique制約で弾く）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return nil
}

// ログインの入力を検証
func (v *AuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	// email形式
	if !isEmailLike(email) {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
