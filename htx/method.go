package htx

// Method enumerates the RFC 7231 verbs the core recognizes, plus
// MethodUnknown.
type Method int

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
)

var methodNames = map[Method]string{
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
}

var methodsByName = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for k, v := range methodNames {
		m[v] = k
	}
	return m
}()

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseMethod maps a request-line method token to a Method, or
// MethodUnknown if it does not match a known verb.
func ParseMethod(tok string) Method {
	if m, ok := methodsByName[tok]; ok {
		return m
	}
	return MethodUnknown
}
