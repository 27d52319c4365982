package service

import (
	"strings"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
)

// Actor 操作人，由 handler 从 JWT 构造并显式传入每个操作
type Actor struct {
	Email string
	Name  string
	Role  string
}

// Is 是否为任一角色
func (a Actor) Is(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

// Owns 客户邮箱是否属于当前操作人
func (a Actor) Owns(email string) bool {
	return email != "" && strings.EqualFold(a.Email, email)
}

func (a Actor) validate() error {
	if a.Email == "" || a.Role == "" {
		return forbidden("actor email and role are required")
	}
	return nil
}

// requireRole 校验角色，admin 总是放行
func (a Actor) requireRole(action string, roles ...string) error {
	if err := a.validate(); err != nil {
		return err
	}
	if a.IsAdmin() || a.Is(roles...) {
		return nil
	}
	return forbidden("role %s cannot %s", a.Role, action)
}
