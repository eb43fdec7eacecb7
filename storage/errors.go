package storage

import (
	"errors"
	"net/http"

	"github.com/aws/smithy-go"
	"github.com/use-agent/sheetshot/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// googleQuotaReasons are googleapi error reasons that mean "slow down"
// rather than "not allowed".
var googleQuotaReasons = map[string]bool{
	"rateLimitExceeded":        true,
	"userRateLimitExceeded":    true,
	"quotaExceeded":            true,
	"dailyLimitExceeded":       true,
	"storageQuotaExceeded":     true,
	"sharingRateLimitExceeded": true,
}

var s3AuthCodes = map[string]bool{
	"AccessDenied":          true,
	"AllAccessDisabled":     true,
	"ExpiredToken":          true,
	"InvalidAccessKeyId":    true,
	"InvalidToken":          true,
	"SignatureDoesNotMatch": true,
}

var s3QuotaCodes = map[string]bool{
	"SlowDown":             true,
	"QuotaExceeded":        true,
	"TooManyRequests":      true,
	"RequestLimitExceeded": true,
}

// classifyGoogle maps Drive API errors onto the upload failure codes.
func classifyGoogle(err error, msg string) *models.PipelineError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		for _, item := range gerr.Errors {
			if googleQuotaReasons[item.Reason] {
				return models.NewPipelineError(models.ErrCodeUploadQuota, msg, err)
			}
		}
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return models.NewPipelineError(models.ErrCodeUploadQuota, msg, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return models.NewPipelineError(models.ErrCodeUploadAuth, msg, err)
		}
	}

	// Token exchange failures surface before any API call is made.
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return models.NewPipelineError(models.ErrCodeUploadAuth, msg, err)
	}
	return models.NewPipelineError(models.ErrCodeUploadIO, msg, err)
}

// classifyS3 maps S3 API error codes onto the upload failure codes.
func classifyS3(err error, msg string) *models.PipelineError {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch {
		case s3AuthCodes[apiErr.ErrorCode()]:
			return models.NewPipelineError(models.ErrCodeUploadAuth, msg, err)
		case s3QuotaCodes[apiErr.ErrorCode()]:
			return models.NewPipelineError(models.ErrCodeUploadQuota, msg, err)
		}
	}
	return models.NewPipelineError(models.ErrCodeUploadIO, msg, err)
}
