// Package router assembles the gin engine: global middleware, public probes
// and the authenticated catalog API under the configured prefix.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/handler"
	"github.com/noah-isme/program-catalog-api/internal/middleware"
	"github.com/noah-isme/program-catalog-api/internal/service"
	"github.com/noah-isme/program-catalog-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/program-catalog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/program-catalog-api/pkg/middleware/requestid"
)

// Options controls engine-wide behaviour.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth           *handler.AuthHandler
	Account        *handler.AccountHandler
	Lecturer       *handler.LecturerHandler
	Program        *handler.ProgramHandler
	Specialization *handler.SpecializationHandler
	Module         *handler.ModuleHandler
	Group          *handler.GroupHandler
	Room           *handler.RoomHandler
	Domain         *handler.DomainHandler
	Constraint     *handler.ConstraintHandler
	Availability   *handler.AvailabilityHandler
	Metrics        *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators used by middleware.
type Dependencies struct {
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditWriter
	Metrics *service.MetricsService
	Logger  *zap.Logger
}

// New builds the engine.
func New(opts Options, h Handlers, deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))
	if deps.Audit != nil {
		secured.Use(middleware.Audit(deps.Audit, opts.APIPrefix, log))
	}

	secured.GET("/auth/me", h.Auth.Me)

	accounts := secured.Group("/accounts")
	accounts.GET("", h.Account.List)
	accounts.POST("", h.Account.Create)

	programs := secured.Group("/study-programs")
	programs.GET("", h.Program.List)
	programs.GET("/:id", h.Program.Get)
	programs.POST("", h.Program.Create)
	programs.PUT("/:id", h.Program.Update)
	programs.DELETE("/:id", h.Program.Delete)

	specializations := secured.Group("/specializations")
	specializations.GET("", h.Specialization.List)
	specializations.GET("/:id", h.Specialization.Get)
	specializations.POST("", h.Specialization.Create)
	specializations.PUT("/:id", h.Specialization.Update)
	specializations.DELETE("/:id", h.Specialization.Delete)

	modules := secured.Group("/modules")
	modules.GET("", h.Module.List)
	modules.GET("/:code", h.Module.Get)
	modules.POST("", h.Module.Create)
	modules.PUT("/:code", h.Module.Update)
	modules.DELETE("/:code", h.Module.Delete)

	groups := secured.Group("/groups")
	groups.GET("", h.Group.List)
	groups.GET("/:id", h.Group.Get)
	groups.POST("", h.Group.Create)
	groups.PUT("/:id", h.Group.Update)
	groups.DELETE("/:id", h.Group.Delete)

	rooms := secured.Group("/rooms")
	rooms.GET("", h.Room.List)
	rooms.GET("/:id", h.Room.Get)
	rooms.POST("", h.Room.Create)
	rooms.PUT("/:id", h.Room.Update)
	rooms.DELETE("/:id", h.Room.Delete)

	lecturers := secured.Group("/lecturers")
	lecturers.GET("", h.Lecturer.List)
	lecturers.GET("/:id", h.Lecturer.Get)
	lecturers.POST("", h.Lecturer.Create)
	lecturers.PUT("/:id", h.Lecturer.Update)
	lecturers.DELETE("/:id", h.Lecturer.Delete)
	lecturers.PUT("/:id/modules", h.Lecturer.AssignModules)

	domains := secured.Group("/domains")
	domains.GET("", h.Domain.List)
	domains.POST("", h.Domain.Create)

	types := secured.Group("/constraint-types")
	types.GET("", h.Constraint.ListTypes)
	types.POST("", h.Constraint.CreateType)
	types.GET("/:id", h.Constraint.GetType)
	types.PUT("/:id", h.Constraint.UpdateType)

	constraints := secured.Group("/scheduler-constraints")
	constraints.GET("", h.Constraint.ListConstraints)
	constraints.POST("", h.Constraint.CreateConstraint)
	constraints.GET("/export", h.Constraint.Export)
	constraints.GET("/:id", h.Constraint.GetConstraint)
	constraints.PUT("/:id", h.Constraint.UpdateConstraint)
	constraints.DELETE("/:id", h.Constraint.DeleteConstraint)

	availability := secured.Group("/availabilities")
	availability.GET("", h.Availability.List)
	availability.GET("/:lecturerId", h.Availability.Get)
	availability.PUT("/:lecturerId", h.Availability.Set)
	availability.DELETE("/:lecturerId", h.Availability.Delete)

	return r
}
