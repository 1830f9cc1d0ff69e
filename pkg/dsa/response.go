package dsa

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type (
	// Response is the envelope every DSA endpoint answers with.
	Response struct {
		Status         string          `json:"status"`
		Valid          *bool           `json:"valid,omitempty"`
		FoundComponent *bool           `json:"foundComponent,omitempty"`
		ValidationList *ValidationList `json:"validationlist,omitempty"`
		// raw keeps the full body for resource specific fields
		raw []byte
	}
	ValidationList struct {
		ServerValidationList []Validation `json:"serverValidationList,omitempty"`
		ClientValidationList []Validation `json:"clientValidationList,omitempty"`
	}
	Validation struct {
		Code      string `json:"code,omitempty"`
		Message   string `json:"message,omitempty"`
		ValStatus string `json:"valStatus,omitempty"`
		// Origin is set on decode and is not part of the wire format
		Origin Origin `json:"-"`
	}
	Origin string
)

const (
	OriginServer Origin = "server"
	OriginClient Origin = "client"
)

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Succeeded reports whether the envelope describes a successful call.
// With an expected status the status must match and valid must not be false.
// Without one valid has to be present and true.
func (r *Response) Succeeded(expected string) bool {
	if r == nil {
		return false
	}
	if expected == "" {
		return r.Valid != nil && *r.Valid
	}
	if r.Valid != nil && !*r.Valid {
		return false
	}
	return r.Status == expected
}

// IsValid returns the valid flag, false when absent.
func (r *Response) IsValid() bool {
	return r != nil && r.Valid != nil && *r.Valid
}

// ComponentMissing reports an explicit foundComponent=false on an otherwise
// accepted call.
func (r *Response) ComponentMissing() bool {
	if r == nil || r.FoundComponent == nil || *r.FoundComponent {
		return false
	}
	return r.Valid == nil || *r.Valid
}

// Validations returns the server entries followed by the client entries.
func (r *Response) Validations() []Validation {
	if r == nil || r.ValidationList == nil {
		return nil
	}
	ret := make([]Validation, 0, len(r.ValidationList.ServerValidationList)+len(r.ValidationList.ClientValidationList))
	for _, v := range r.ValidationList.ServerValidationList {
		v.Origin = OriginServer
		ret = append(ret, v)
	}
	for _, v := range r.ValidationList.ClientValidationList {
		v.Origin = OriginClient
		ret = append(ret, v)
	}
	return ret
}

// Err combines every validation entry into one error.
// It returns nil when there are none.
func (r *Response) Err() error {
	var err error
	for _, v := range r.Validations() {
		err = multierr.Append(err, errors.New(v.String()))
	}
	return err
}

// Raw returns the undecoded body.
func (r *Response) Raw() []byte {
	if r == nil {
		return nil
	}
	return r.raw
}

// Decode unmarshals the full body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.raw) == 0 {
		return errors.New("empty response body")
	}
	return errors.Wrap(json.Unmarshal(r.raw, v), "failed to decode response body")
}

func (v Validation) String() string {
	code := v.Code
	if code == "" {
		code = "N/A"
	}
	msg := v.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("code %s: %s", code, msg)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func decodeResponse(body []byte) (*Response, error) {
	resp := &Response{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, err
	}
	resp.raw = body
	return resp, nil
}

// NewResponse builds a Response from a raw body, mostly for fakes.
func NewResponse(body []byte) (*Response, error) {
	resp, err := decodeResponse(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return resp, nil
}

// hasEnvelope tells a DSA application answer apart from a generic error page.
func (r *Response) hasEnvelope() bool {
	return r.Status != "" || r.Valid != nil || r.ValidationList != nil
}
