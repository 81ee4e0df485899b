package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cupuri/portal-backend/internal/app/models/dto"
	"github.com/cupuri/portal-backend/internal/pkg/apperrors"
	"github.com/cupuri/portal-backend/internal/pkg/logger"
)

// HandleAPIError maps service errors to the standard error envelope.
// Controllers call it for every service failure instead of building
// responses themselves.
func HandleAPIError(c *gin.Context, err error) {
	detail := errorDetailFor(err)

	// CustomError carries a human message and structured details; prefer
	// those over the generic text chosen from the sentinel.
	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) {
		if customErr.Message != "" {
			detail.Message = customErr.Message
		}
		if customErr.Details != nil {
			detail = detail.WithDetails(customErr.Details)
		}
	}

	status := statusFor(err)
	if status >= 500 {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed),
		errors.Is(err, apperrors.ErrBadRequest):
		return 400
	case errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenInvalid):
		return 401
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return 403
	case errors.Is(err, apperrors.ErrExamNotFound),
		errors.Is(err, apperrors.ErrExamFileNotFound),
		errors.Is(err, apperrors.ErrResourceNotFound):
		return 404
	case errors.Is(err, apperrors.ErrStorageBackend):
		return 502
	default:
		return 500
	}
}

func errorDetailFor(err error) *dto.ErrorDetail {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed")
	case errors.Is(err, apperrors.ErrBadRequest):
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrExamFileNotFound):
		return dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Exam file not found")
	case errors.Is(err, apperrors.ErrExamNotFound):
		return dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Exam not found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrMalformedReference):
		return dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, "Stored file reference is malformed")
	case errors.Is(err, apperrors.ErrStorageBackend):
		return dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Storage backend failure")
	default:
		return dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
