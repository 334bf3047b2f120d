package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Request validation
	CodeInvalidTargetAsset: "Target asset must be the pair's base or quote asset",
	CodeInvalidAmount:      "Amount must be positive",
	CodeInvalidSide:        "Side must be BUY or SELL",
	CodeUnsupportedPair:    "Unsupported trading pair",
	CodeBelowMinAmount:     "Amount is below the pair minimum",

	// Liquidity provider errors
	CodeProviderTimeout:       "Provider did not respond within the timeout",
	CodeProviderError:         "Provider returned an error",
	CodeProviderNotFound:      "Provider not found",
	CodeProviderUnavailable:   "Provider temporarily unavailable",
	CodeNoQuotesAvailable:     "No quotes available from any provider",
	CodeQuoteExpired:          "Quote has expired",
	CodeQuantityExceedsQuoted: "Quantity exceeds the quoted maximum",

	// Streaming errors
	CodeStreamNotActive:  "No active streaming session",
	CodeStreamSuperseded: "Streaming session superseded by a new request",
	CodeNoProvidersLeft:  "No providers left to poll",

	// Execution errors
	CodeExecutionInFlight: "An execution is already in flight for this session",
	CodeExecutionFailed:   "Trade execution failed",
	CodeHedgeFailed:       "Hedge execution failed",
	CodeStoreFailure:      "Failed to persist execution record",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
