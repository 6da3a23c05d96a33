package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/server/http/dto"
	"github.com/polkiloo/atelier/internal/server/http/middleware"
)

// CurrentIdentity extracts the caller identity from context.
func CurrentIdentity(c *gin.Context) model.Identity {
	val, ok := c.Get(middleware.IdentityContextKey)
	if !ok {
		return model.Identity{}
	}
	who, _ := val.(model.Identity)
	return who
}

// CurrentViewer combines the caller identity with the admin flag.
func CurrentViewer(c *gin.Context) model.Viewer {
	return model.Viewer{Identity: CurrentIdentity(c), Admin: c.GetBool(middleware.AdminContextKey)}
}

// CurrentActor names the admin performing a privileged call.
func CurrentActor(c *gin.Context) string {
	if actor := c.GetString(middleware.ActorContextKey); actor != "" {
		return actor
	}
	return "admin"
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON decodes the body and runs its binding rules. Rule violations answer 422
// naming the first offending field; undecodable bodies answer 400.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		fe := invalid[0]
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: fmt.Sprintf("failed %s rule", ruleName(fe)),
			Field: field,
		})
		return false
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
	return false
}

func ruleName(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// writeError maps domain errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var unavailable *domainErrors.UnavailableItemsError
	if errors.As(err, &unavailable) {
		items := make([]dto.UnavailableItem, 0, len(unavailable.Reasons))
		for _, id := range unavailable.ItemIDs() {
			items = append(items, dto.UnavailableItem{ItemID: id, Reason: unavailable.Reasons[id]})
		}
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "items not available", Items: items})
		return
	}

	var invalid *domainErrors.ValidationError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: invalid.Reason, Field: invalid.Field})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domainErrors.ErrConflict),
		errors.Is(err, domainErrors.ErrItemUnavailable),
		errors.Is(err, domainErrors.ErrInvalidTransition),
		errors.Is(err, domainErrors.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domainErrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainErrors.ErrValidationFailed),
		errors.Is(err, domainErrors.ErrInconsistent):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, dto.ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}
