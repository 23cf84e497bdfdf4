// Package protocol implements the line-oriented JSON request/response
// codec spoken between this daemon and the DNS front-end (spec §4.6). It
// never touches the store or cache directly; internal/backend dispatches
// decoded queries to them.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/lucat1/consulns/internal/domain"
)

// Method is the wire discriminator naming a backend operation.
type Method string

const (
	MethodInitialize                    Method = "initialize"
	MethodGetAllDomains                 Method = "getAllDomains"
	MethodGetDomainInfo                 Method = "getDomainInfo"
	MethodLookup                        Method = "lookup"
	MethodList                          Method = "list"
	MethodGetAllDomainMetadata          Method = "getAllDomainMetadata"
	MethodGetDomainMetadata             Method = "getDomainMetadata"
	MethodSetDomainMetadata             Method = "setDomainMetadata"
	MethodGetDomainKeys                 Method = "getDomainKeys"
	MethodAddDomainKey                  Method = "addDomainKey"
	MethodRemoveDomainKey               Method = "removeDomainKey"
	MethodGetBeforeAndAfterNamesAbs     Method = "getBeforeAndAfterNamesAbsolute"
	MethodStartTransaction              Method = "startTransaction"
	MethodCommitTransaction             Method = "commitTransaction"
)

// Query is a single decoded request: Method names which typed Params
// struct is held (one of the *Params types below).
type Query struct {
	Method Method
	Params any
}

type InitializeParams struct {
	Path string `json:"path"`
}

type GetAllDomainsParams struct {
	IncludeDisabled bool `json:"include_disabled"`
}

type GetDomainInfoParams struct {
	Name string `json:"name"`
}

// LookupParams carries a lookup request. Its ZoneID is a nullable zone
// identifier: -1 and absent are equivalent and mean "resolve by name"
// (spec §4.6). A nil ZoneID or a value of -1 both mean that.
type LookupParams struct {
	QName  string   `json:"qname"`
	QType  domain.QType `json:"qtype"`
	ZoneID *int     `json:"zone-id"`
}

// HasZoneID reports whether the request pinned a concrete zone id.
func (p LookupParams) HasZoneID() (int, bool) {
	if p.ZoneID == nil || *p.ZoneID == -1 {
		return 0, false
	}
	return *p.ZoneID, true
}

type ListParams struct {
	ZoneName string `json:"zonename"`
	DomainID int    `json:"domain_id"`
}

type GetAllDomainMetadataParams struct {
	Name string `json:"name"`
}

type GetDomainMetadataParams struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type SetDomainMetadataParams struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Value []string `json:"value"`
}

type GetDomainKeysParams struct {
	Name string `json:"name"`
}

type AddDomainKeyParams struct {
	Name string     `json:"name"`
	Key  domain.Key `json:"key"`
}

type RemoveDomainKeyParams struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type GetBeforeAndAfterNamesAbsoluteParams struct {
	QName string `json:"qname"`
}

type TransactionParams struct {
	// PowerDNS sends additional fields here (domain id, transaction id);
	// this backend does not implement multi-key atomicity (spec §9) and
	// only needs to acknowledge the call, so the payload is accepted and
	// discarded.
	Raw json.RawMessage `json:"-"`
}

type envelope struct {
	Method     Method          `json:"method"`
	Parameters json.RawMessage `json:"parameters"`
}

// Decode parses one newline-framed JSON request line into a Query.
func Decode(line []byte) (Query, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Query{}, fmt.Errorf("protocol: decoding envelope: %w", err)
	}

	var params any
	switch env.Method {
	case MethodInitialize:
		params = new(InitializeParams)
	case MethodGetAllDomains:
		params = new(GetAllDomainsParams)
	case MethodGetDomainInfo:
		params = new(GetDomainInfoParams)
	case MethodLookup:
		params = new(LookupParams)
	case MethodList:
		params = new(ListParams)
	case MethodGetAllDomainMetadata:
		params = new(GetAllDomainMetadataParams)
	case MethodGetDomainMetadata:
		params = new(GetDomainMetadataParams)
	case MethodSetDomainMetadata:
		params = new(SetDomainMetadataParams)
	case MethodGetDomainKeys:
		params = new(GetDomainKeysParams)
	case MethodAddDomainKey:
		params = new(AddDomainKeyParams)
	case MethodRemoveDomainKey:
		params = new(RemoveDomainKeyParams)
	case MethodGetBeforeAndAfterNamesAbs:
		params = new(GetBeforeAndAfterNamesAbsoluteParams)
	case MethodStartTransaction, MethodCommitTransaction:
		params = new(TransactionParams)
	default:
		return Query{}, fmt.Errorf("protocol: unknown method %q", env.Method)
	}

	if len(env.Parameters) > 0 {
		if err := json.Unmarshal(env.Parameters, params); err != nil {
			return Query{}, fmt.Errorf("protocol: decoding parameters for %s: %w", env.Method, err)
		}
	}

	// dereference the pointer so callers type-switch on value types
	switch p := params.(type) {
	case *InitializeParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *GetAllDomainsParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *GetDomainInfoParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *LookupParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *ListParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *GetAllDomainMetadataParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *GetDomainMetadataParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *SetDomainMetadataParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *GetDomainKeysParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *AddDomainKeyParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *RemoveDomainKeyParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *GetBeforeAndAfterNamesAbsoluteParams:
		return Query{Method: env.Method, Params: *p}, nil
	case *TransactionParams:
		return Query{Method: env.Method, Params: *p}, nil
	default:
		return Query{}, fmt.Errorf("protocol: unhandled parameter type for %s", env.Method)
	}
}
