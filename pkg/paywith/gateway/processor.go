package gateway

// Processor carries the identity of one payment gateway (name, base URL,
// secret key, request headers) and the outcome of its last operation. It is
// embedded by every gateway transaction and is not safe for concurrent use;
// each logical payment flow gets its own instance.
type Processor struct {
	name        string
	displayName string
	baseURL     string
	secretKey   string
	headers     map[string]string

	status     bool
	statusCode int
	message    string
	parsed     any
	raw        []byte
}

// NewProcessor builds the identity record for a gateway. The secret key is
// accepted as-is; gateways validate it on first request, not at construction.
func NewProcessor(name, displayName, baseURL, secretKey string) Processor {
	return Processor{
		name:        name,
		displayName: displayName,
		baseURL:     baseURL,
		secretKey:   secretKey,
		headers: map[string]string{
			"Authorization": "Bearer " + secretKey,
			"Content-Type":  "application/json",
		},
	}
}

// Name returns the lowercase gateway identifier, e.g. "paystack".
func (p *Processor) Name() string { return p.name }

// DisplayName returns the human-facing gateway name used as message prefix.
func (p *Processor) DisplayName() string { return p.displayName }

// BaseURL returns the gateway API root.
func (p *Processor) BaseURL() string { return p.baseURL }

// SecretKey returns the merchant secret. Never log or serialize this value.
func (p *Processor) SecretKey() string { return p.secretKey }

// Headers returns a copy of the request headers sent with every API call.
func (p *Processor) Headers() map[string]string {
	h := make(map[string]string, len(p.headers))
	for k, v := range p.headers {
		h[k] = v
	}
	return h
}

// SetHeader overrides or adds a request header.
func (p *Processor) SetHeader(name, value string) {
	p.headers[name] = value
}

// Status reports whether the last operation reached an explicit gateway
// success signal. It is false by default and never flips on mere absence of
// an error.
func (p *Processor) Status() bool { return p.status }

// StatusCode returns the HTTP status of the last exchange (0 when the
// request never left the client).
func (p *Processor) StatusCode() int { return p.statusCode }

// Message returns the human-readable outcome of the last operation,
// prefixed with the gateway display name.
func (p *Processor) Message() string { return p.message }

// Response returns the parsed body of the last gateway response, or nil.
func (p *Processor) Response() any { return p.parsed }

// RawResponse returns the unparsed body of the last gateway response.
func (p *Processor) RawResponse() []byte { return p.raw }

// SetResponse stores the parsed and raw forms of a gateway response.
func (p *Processor) SetResponse(parsed any, raw []byte) {
	p.parsed = parsed
	p.raw = raw
}

// Succeed records a successful operation outcome.
func (p *Processor) Succeed(code int, text string) {
	p.status = true
	p.setMessage(text, code)
}

// Fail records a failed operation outcome.
func (p *Processor) Fail(code int, text string) {
	p.status = false
	p.setMessage(text, code)
}

// setMessage decorates text by HTTP status class and prefixes the gateway
// display name. Pure function of (code, text); codes outside the mapped set
// pass the text through untouched.
func (p *Processor) setMessage(text string, code int) {
	p.statusCode = code
	p.message = p.displayName + ": " + messageForStatus(code, text)
}

func messageForStatus(code int, text string) string {
	switch code {
	case 200, 201:
		return text
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorised Request"
	case 404:
		return "Not found"
	case 500:
		return "Internal server error"
	case 501:
		return "Service unavailable"
	default:
		return text
	}
}
