package middleware

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
)

var registerOnce sync.Once

// RegisterValidators adds the catalogue checks used in binding tags
// (`department`, `course`) to gin's validator. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
			return models.IsKnownDepartment(fl.Field().String())
		})
		_ = v.RegisterValidation("course", func(fl validator.FieldLevel) bool {
			return models.IsKnownCourse(fl.Field().String())
		})
	})
}

// BindJSON binds the request body into obj. On failure it writes a 400
// response listing every invalid field and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorAPIResponse(bindingErrorDetail(err)))
		return false
	}
	return true
}

func bindingErrorDetail(err error) *dto.ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").
			WithSeverity(dto.ErrorSeverityWarning).
			WithDetails(err.Error())
	}

	list := dto.NewValidationErrors()
	for _, fe := range verrs {
		list.AddError(fe.Field(), formatValidationError(fe))
	}
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, list.Errors[0].Message).
		WithField(list.Errors[0].Field).
		WithSeverity(dto.ErrorSeverityWarning)
	return detail.WithDetails(list.Errors)
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "eqfield":
		return e.Field() + " must match " + e.Param()
	case "datetime":
		return e.Field() + " must be a date in YYYY-MM-DD format"
	case "department":
		return e.Field() + " is not a known department"
	case "course":
		return e.Field() + " is not a known course"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
