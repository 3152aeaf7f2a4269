package quota

import "encoding/json"

// Envelope is the normalized shape of a proxied HTTP response returned by
// the management API's generic call endpoint.
type Envelope struct {
	StatusCode int
	Headers    map[string]any
	Body       any
	BodyText   string
	Err        string
}

// NormalizeEnvelope unwraps the raw JSON value returned by the generic call
// into a uniform envelope. Both status-code field conventions are accepted;
// a string body is JSON-parsed when possible and kept as text either way.
func NormalizeEnvelope(raw any) Envelope {
	m := asObject(raw)
	if m == nil {
		return Envelope{}
	}

	env := Envelope{
		Err: strField(m, "error", "message"),
	}
	if code, ok := numField(m, "status_code", "statusCode"); ok {
		env.StatusCode = int(code)
	}
	if h := objField(m, "header", "headers"); h != nil {
		env.Headers = h
	}

	switch body := m["body"].(type) {
	case string:
		env.BodyText = body
		var decoded any
		if err := json.Unmarshal([]byte(body), &decoded); err == nil {
			env.Body = decoded
		} else {
			env.Body = body
		}
	case nil:
		if s, ok := m["bodyText"].(string); ok {
			env.BodyText = s
		}
	default:
		env.Body = body
		if text, err := json.Marshal(body); err == nil {
			env.BodyText = string(text)
		}
	}

	return env
}

// Check classifies the envelope: nil for 2xx, otherwise a RequestFailedError
// carrying the upstream error string or a synthesized HTTP <code> message.
// Provider parsers must never run on an envelope that fails this check.
func (e Envelope) Check() error {
	if e.StatusCode >= 200 && e.StatusCode < 300 {
		return nil
	}
	return &RequestFailedError{StatusCode: e.StatusCode, Message: e.Err}
}

// Payload returns the decoded body when present, else the body text.
func (e Envelope) Payload() any {
	if e.Body != nil {
		return e.Body
	}
	if e.BodyText != "" {
		return e.BodyText
	}
	return nil
}
