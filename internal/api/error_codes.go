// internal/api/error_codes.go
package api

// API错误代码常量
const (
	ErrorInvalidInput  = "INVALID_INPUT"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	ErrorExtractionFailed  = "EXTRACTION_FAILED"
	ErrorNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrorGenerationFailed  = "GENERATION_FAILED"

	// websocket 协议错误
	ErrorInvalidMessage = "INVALID_MESSAGE"
)

// Client-facing messages. Internal detail stays in the logs.
const (
	msgURLRequired     = "URL is required."
	msgAnalysisFailed  = "An error occurred while analyzing the website."
	msgRateLimited     = "Rate limit exceeded. Please try again later."
	msgInvalidMessage  = "Expected a JSON message with a url field."
	msgRouteNotFound   = "Not found."
	msgInternalFailure = "An unexpected error occurred. Please try again."
)

// publicMessages maps error codes to the text clients see for 5xx failures.
var publicMessages = map[string]string{
	ErrorExtractionFailed:  msgAnalysisFailed,
	ErrorNavigationTimeout: "The page did not finish loading in time.",
	ErrorGenerationFailed:  "Failed to generate the design critique.",
	ErrorInternalError:     msgInternalFailure,
}
