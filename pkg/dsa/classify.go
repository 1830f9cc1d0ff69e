package dsa

import (
	"strings"
)

// Kind classifies a rejected request.
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindInUse      Kind = "in_use"
)

// inUseMarkers are message fragments DSA uses when a component is still
// referenced by a job or target group. DSA has no structured code for this yet.
var inUseMarkers = []string{
	"in use by",
}

// Classify maps the validation entries of a response to a Kind.
// Message text matching is confined to this function.
func Classify(r *Response) Kind {
	vals := r.Validations()
	if len(vals) == 0 {
		if r.Succeeded("") {
			return KindNone
		}
		return KindValidation
	}
	for _, v := range vals {
		if v.Origin != OriginServer {
			continue
		}
		msg := strings.ToLower(v.Message)
		for _, marker := range inUseMarkers {
			if strings.Contains(msg, marker) {
				return KindInUse
			}
		}
	}
	return KindValidation
}
