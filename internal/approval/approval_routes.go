package approval

import (
	"people-desk/internal/middleware"
	"people-desk/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var routePrefixes = map[Kind]string{
	KindLeave:      "/leaves",
	KindPermission: "/permissions",
}

func RoutePrefix(kind Kind) string {
	return routePrefixes[kind]
}

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	jwtSecret string,
	rdb *redis.Client,
) {
	requests := r.Group(RoutePrefix(handler.kind))
	requests.Use(middleware.AuthMiddleware(jwtSecret))

	submit := []gin.HandlerFunc{middleware.RBACAuthorize(rbacService, rbac.CapSubmit)}
	if rdb != nil {
		submit = append(submit, middleware.Idempotency(rdb))
	}
	requests.POST("", append(submit, handler.Submit)...)
	requests.GET("/my", middleware.RBACAuthorize(rbacService, rbac.CapListOwn), handler.ListMine)

	ceo := requests.Group("/ceo")
	{
		list := middleware.RBACAuthorize(rbacService, rbac.CapListCEO)
		ceo.GET("/requests", list, handler.ListPending(StageCEO))
		ceo.GET("/history", list, handler.ListHistory(StageCEO))
		ceo.GET("/today-requests", list, handler.ListToday(StageCEO, false))
		ceo.GET("/today-history", list, handler.ListToday(StageCEO, true))
		ceo.PATCH("/:id", middleware.RBACAuthorize(rbacService, rbac.CapDecideCEO), handler.Decide(StageCEO))
	}

	hr := requests.Group("/hr")
	{
		list := middleware.RBACAuthorize(rbacService, rbac.CapListHR)
		hr.GET("/requests", list, handler.ListPending(StageHR))
		hr.GET("/history", list, handler.ListHistory(StageHR))
		hr.GET("/today-requests", list, handler.ListToday(StageHR, false))
		hr.GET("/today-history", list, handler.ListToday(StageHR, true))
		hr.PATCH("/:id", middleware.RBACAuthorize(rbacService, rbac.CapDecideHR), handler.Decide(StageHR))
		hr.GET("/report", middleware.RBACAuthorize(rbacService, rbac.CapReport), handler.Report)
	}
}
