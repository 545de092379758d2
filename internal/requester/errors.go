package requester

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrorCode returns the MTurk service error code carried by err, or "" when
// err did not come from the service.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func errorFields(err error, fields map[string]any) map[string]any {
	fields["error"] = err.Error()
	if code := ErrorCode(err); code != "" {
		fields["error_code"] = code
	}
	return fields
}
