package htx

// Response is the logical HTTP response a Handler produces. UseChunked
// selects the Writer's emission mode; Version defaults to HTTP/1.1
// when left VersionUnknown.
type Response struct {
	Version    Version
	Status     Status
	Headers    Header
	Body       []byte
	UseChunked bool
}

// NewResponse returns a Response with an initialized Header and
// HTTP/1.1 as the version.
func NewResponse(status Status) Response {
	return Response{
		Version: HTTP11,
		Status:  status,
		Headers: NewHeader(),
	}
}
