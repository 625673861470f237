package httpadapter

import (
	"net/http"

	"github.com/docsift/docsift/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSchemaNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrSchemaExists):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrSchemaProtected):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrSchemaInvalid):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
