package model

// 認証済みの呼び出し元。middlewareが作り、usecaseへ明示的に渡す。
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) Authenticated() bool {
	return i.UserID > 0 && i.Role.Valid()
}

func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == RoleAdmin
}

// 所有者本人かadminのときだけtrue
func (i Identity) CanAccess(ownerID int64) bool {
	if !i.Authenticated() {
		return false
	}
	return i.IsAdmin() || i.UserID == ownerID
}

// roleを満たすか。adminは全roleを満たす。
func (i Identity) HasRole(role Role) bool {
	if !i.Authenticated() {
		return false
	}
	return i.Role == RoleAdmin || i.Role == role
}
