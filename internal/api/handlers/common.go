package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/superbmd/superbmd/internal/auth"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/service"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// handleServiceError maps service-layer errors to HTTP status codes.
func handleServiceError(c *gin.Context, err error) {
	var paramErr *query.ParamError
	if errors.As(err, &paramErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Parameter query tidak valid", Errors: paramErr.Fields})
		return
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Data tidak valid", Errors: validationErr.Fields})
		return
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Username atau password salah"})
		return
	}
	if errors.Is(err, auth.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Tidak terautentikasi"})
		return
	}
	var forbiddenErr *service.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: forbiddenErr.Message})
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Data tidak ditemukan"})
		return
	}
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, ErrorResponse{Message: conflictErr.Message})
		return
	}
	slog.Error("unhandled service error", "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Terjadi kesalahan pada server"})
}

var jsonFieldNames sync.Once

// useJSONFieldNames makes validator report fields by their JSON names so the
// error map keys match the request body.
func useJSONFieldNames() {
	jsonFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON decodes and validates the request body. On failure it writes a 400
// with a field error map and returns false.
func bindJSON(c *gin.Context, obj interface{}) bool {
	useJSONFieldNames()
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describeFieldError(fe)
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Data tidak valid", Errors: fields})
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Data tidak valid",
			Errors:  map[string]string{typeErr.Field: fmt.Sprintf("harus bertipe %s", typeErr.Type.Kind())},
		})
	case errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Body request kosong"})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Body request tidak valid"})
	}
	return false
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "min":
		return fmt.Sprintf("minimal %s karakter", fe.Param())
	case "max":
		return fmt.Sprintf("maksimal %s karakter", fe.Param())
	case "gt":
		return fmt.Sprintf("harus lebih dari %s", fe.Param())
	case "datetime":
		return "harus berupa tanggal dengan format YYYY-MM-DD"
	default:
		return fmt.Sprintf("tidak memenuhi aturan %s", fe.Tag())
	}
}

// parseID reads the :id path parameter. On failure it writes a 400 and returns false.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "ID tidak valid",
			Errors:  map[string]string{"id": "harus berupa bilangan bulat positif"},
		})
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated principal. On failure it writes a 401 and returns nil.
func currentUser(c *gin.Context) *models.User {
	user, err := auth.UserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Tidak terautentikasi"})
		return nil
	}
	return user
}

// parseCondition converts a request value into a Condition, naming field on failure.
func parseCondition(field, raw string) (models.Condition, error) {
	cond, err := models.ParseCondition(raw)
	if err != nil {
		return "", &service.ValidationError{Message: err.Error(), Fields: map[string]string{field: err.Error()}}
	}
	return cond, nil
}

// parseRole converts a request value into a Role, naming field on failure.
func parseRole(field, raw string) (models.Role, error) {
	role, err := models.ParseRole(raw)
	if err != nil {
		return "", &service.ValidationError{Message: err.Error(), Fields: map[string]string{field: err.Error()}}
	}
	return role, nil
}

// parseDate reads a YYYY-MM-DD value, naming field on failure.
func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(query.DateLayout, raw)
	if err != nil {
		msg := "harus berupa tanggal dengan format YYYY-MM-DD"
		return time.Time{}, &service.ValidationError{Message: field + ": " + msg, Fields: map[string]string{field: msg}}
	}
	return t, nil
}
