package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)

// Outcome label values shared by use cases and provider calls.
const (
	OutcomeSuccess       = "success"
	OutcomeError         = "error"
	OutcomeProviderError = "provider_error"
	OutcomeNetworkError  = "network_error"
)
