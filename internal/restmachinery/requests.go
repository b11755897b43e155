package restmachinery

// OutboundRequest models a request to one of the backend auth endpoints.
type OutboundRequest struct {
	Method      string
	URL         string
	QueryParams map[string]string
	Headers     map[string]string
	SuccessCode int
}
