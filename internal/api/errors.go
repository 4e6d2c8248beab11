package api

import (
	"errors"
	"fitformula/api/internal/plangen"
	"fitformula/api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the HTTP status the web client expects.
// Unknown errors become a 500 with a generic message; the cause is only logged.
func respondError(c *gin.Context, err error, fallback string) {
	var (
		authErr        *service.AuthorizationError
		unavailableErr *service.StoreUnavailableError
		apiErr         *plangen.APIError
	)
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &authErr):
		abortWithError(c, http.StatusUnauthorized, authErr.Error())
	case errors.Is(err, service.ErrAuthenticationFailed), errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrFreeTrialUsed):
		abortWithError(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.As(err, &unavailableErr):
		abortWithError(c, http.StatusServiceUnavailable, "Plan history is temporarily unavailable")
	case errors.Is(err, service.ErrExportUnavailable), errors.Is(err, service.ErrGoogleSignInDisabled):
		abortWithError(c, http.StatusNotImplemented, err.Error())
	case errors.As(err, &apiErr):
		msg := "Failed to generate plan. Please try again."
		if apiErr.Detail != "" {
			msg = apiErr.Detail
		}
		abortWithError(c, http.StatusBadGateway, msg)
	case errors.Is(err, plangen.ErrUnavailable):
		abortWithError(c, http.StatusBadGateway, "Plan generation is temporarily unavailable")
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
