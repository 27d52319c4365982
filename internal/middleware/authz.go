package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
)

// rbacModel admin 拥有全部权限，p.act 为 * 时匹配任意动作
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == "admin" || (r.sub == p.sub && r.obj == p.obj && (p.act == "*" || r.act == p.act))
`

// 路由级权限表：角色能否到达某个接口，具体状态流转规则在 service 层校验
var defaultPolicies = [][]string{
	{"client", "rfq", "create"},
	{"client", "rfq", "read"},
	{"client", "rfq", "transition"},
	{"sales", "rfq", "*"},
	{"pricing", "rfq", "read"},
	{"pricing", "rfq", "transition"},
	{"pricing", "rfq", "notes"},
	{"operations", "rfq", "read"},

	{"client", "shipment", "read"},
	{"client", "shipment", "update"},
	{"client", "shipment", "document"},
	{"sales", "shipment", "read"},
	{"operations", "shipment", "read"},
	{"operations", "shipment", "create"},
	{"operations", "shipment", "update"},
	{"operations", "shipment", "advance"},
	{"operations", "shipment", "document"},
	{"operations", "shipment", "export"},

	{"client", "amendment", "create"},
	{"client", "amendment", "read"},
	{"sales", "amendment", "read"},
	{"operations", "amendment", "read"},
	{"operations", "amendment", "resolve"},

	{"client", "notification", "*"},
	{"sales", "notification", "*"},
	{"pricing", "notification", "*"},
	{"operations", "notification", "*"},

	{"sales", "activity", "read"},
	{"pricing", "activity", "read"},
	{"operations", "activity", "read"},
}

// NewEnforcer 创建内置 RBAC 策略的 casbin enforcer
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, err
	}
	return e, nil
}

// Authorize 路由权限中间件，需在 JWTAuth 之后使用
func Authorize(e *casbin.Enforcer, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		ok, err := e.Enforce(role, obj, act)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    50000,
				"message": "Authorization check failed: " + err.Error(),
			})
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    40302,
				"message": "Permission denied: " + obj + ":" + act,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
