package protocol

import "encoding/json"

// Response wraps every reply in the single "result" envelope the backend
// protocol requires (spec §4.6). Result holds a bool, a DomainInfo (or
// slice of), a slice of RecordInfo, a slice of domain.Key, a map, a slice
// of strings, or a BeforeAndAfterNames value, depending on the method.
type Response struct {
	Result any `json:"result"`
}

// Ok wraps v as a successful result.
func Ok(v any) Response { return Response{Result: v} }

// Fail is the canonical failure reply: {"result": false}.
func Fail() Response { return Response{Result: false} }

// Encode serialises r as a single compact JSON line with no embedded
// newline and a trailing "\n" line terminator, matching the newline-framed
// wire format (spec §4.6, §4.7).
func Encode(r Response) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
