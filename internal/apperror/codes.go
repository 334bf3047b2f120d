package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// RFQ-specific error codes
const (
	// Request validation
	CodeInvalidTargetAsset Code = "INVALID_TARGET_ASSET"
	CodeInvalidAmount      Code = "INVALID_AMOUNT"
	CodeInvalidSide        Code = "INVALID_SIDE"
	CodeUnsupportedPair    Code = "UNSUPPORTED_PAIR"
	CodeBelowMinAmount     Code = "BELOW_MIN_AMOUNT"

	// Liquidity provider errors
	CodeProviderTimeout       Code = "PROVIDER_TIMEOUT"
	CodeProviderError         Code = "PROVIDER_ERROR"
	CodeProviderNotFound      Code = "PROVIDER_NOT_FOUND"
	CodeProviderUnavailable   Code = "PROVIDER_UNAVAILABLE"
	CodeNoQuotesAvailable     Code = "NO_QUOTES_AVAILABLE"
	CodeQuoteExpired          Code = "QUOTE_EXPIRED"
	CodeQuantityExceedsQuoted Code = "QUANTITY_EXCEEDS_QUOTED"

	// Streaming errors
	CodeStreamNotActive  Code = "STREAM_NOT_ACTIVE"
	CodeStreamSuperseded Code = "STREAM_SUPERSEDED"
	CodeNoProvidersLeft  Code = "NO_PROVIDERS_LEFT"

	// Execution errors
	CodeExecutionInFlight Code = "EXECUTION_IN_FLIGHT"
	CodeExecutionFailed   Code = "EXECUTION_FAILED"
	CodeHedgeFailed       Code = "HEDGE_FAILED"
	CodeStoreFailure      Code = "STORE_FAILURE"

	// WebSocket errors (remote LP adapter)
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
