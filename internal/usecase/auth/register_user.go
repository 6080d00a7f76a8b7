package auth

import (
	"context"
	"errors"
	"strings"

	"grocery/internal/domain/model"
	"grocery/internal/repository"
)

// 会員登録の入力
type RegisterUserInput struct {
	Username string
	Email    string
	Password string
}

// メールが既に使われている
var ErrEmailAlreadyExists = errors.New("email already exists")

// RegisterUserUsecaseは会員登録の処理。
// 登録されるのは常にcustomer。adminはCLIのcreate-adminで作る。
type RegisterUserUsecase struct {
	userRepo  repository.UserRepository
	validator InputValidator
	hasher    PasswordHasher
	issuer    AccessTokenIssuer
	clock     Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	validator InputValidator,
	hasher PasswordHasher,
	issuer AccessTokenIssuer,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo:  userRepo,
		validator: validator,
		hasher:    hasher,
		issuer:    issuer,
		clock:     clock,
	}
}

// 会員登録実行。登録後そのままログイン状態のトークンを返す。
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (Output, error) {
	var out Output

	user, err := u.create(ctx, in, model.RoleCustomer)
	if err != nil {
		return out, err
	}

	token, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, u.clock.Now())
	if err != nil {
		return out, err
	}

	out.Token = token
	out.ExpiresAt = exp
	out.User = *user
	return out, nil
}

// adminを作る。同じメールのユーザーがいればadminに昇格してパスワードを差し替える。
func (u *RegisterUserUsecase) EnsureAdmin(ctx context.Context, in RegisterUserInput) (model.User, error) {
	existing, err := u.userRepo.FindByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, repository.ErrNotFound) {
		user, err := u.create(ctx, in, model.RoleAdmin)
		if err != nil {
			return model.User{}, err
		}
		return *user, nil
	}
	if err != nil {
		return model.User{}, err
	}

	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return model.User{}, err
	}
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}
	existing.Role = model.RoleAdmin
	existing.PasswordHash = hashed
	existing.IsActive = true
	if strings.TrimSpace(in.Username) != "" {
		existing.Username = strings.TrimSpace(in.Username)
	}
	if err := u.userRepo.Update(ctx, existing); err != nil {
		return model.User{}, err
	}
	//古いトークンは無効にする
	if err := u.userRepo.IncrementTokenVersion(ctx, existing.ID); err != nil {
		return model.User{}, err
	}
	return *existing, nil
}

func (u *RegisterUserUsecase) create(ctx context.Context, in RegisterUserInput, role model.Role) (*model.User, error) {
	if err := u.validator.ValidateRegister(ctx, in.Username, in.Email, in.Password); err != nil {
		return nil, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
	}

	// DBへ保存（同時登録はunique制約で弾く）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
