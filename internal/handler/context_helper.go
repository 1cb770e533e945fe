package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/middleware"
	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

// uploadField is the multipart field carrying spreadsheet uploads.
const uploadField = "file"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// isStudent reports whether the caller acts as a student.
func isStudent(c *gin.Context) bool {
	claims := claimsFromContext(c)
	return claims != nil && claims.Role == models.RoleStudent
}

// openUpload returns the uploaded spreadsheet. The caller closes it.
func openUpload(c *gin.Context) (io.ReadCloser, error) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file could not be opened")
	}
	return file, nil
}

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func bindIDs(c *gin.Context) ([]string, error) {
	var ids []string
	if err := bindJSON(c, &ids); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
