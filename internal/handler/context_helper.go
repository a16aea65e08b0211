package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/middleware"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
	"github.com/noah-isme/program-catalog-api/pkg/response"
)

// actorFromContext builds the permission actor from JWT claims. It writes a
// 401 and returns false when no claims are present.
func actorFromContext(c *gin.Context) (authz.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
		return authz.Actor{}, false
	}
	return authz.Actor{AccountID: claims.UserID, Role: claims.Role, LecturerID: claims.LecturerID}, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" query parameter"))
		return nil, false
	}
	return &value, true
}

func optionalBoolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" query parameter"))
		return nil, false
	}
	return &value, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
