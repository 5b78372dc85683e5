package soap

import (
	"errors"

	"github.com/beevik/etree"
)

const (
	KindSuccess   = "success"
	KindFault     = "fault"
	KindMalformed = "malformed"
	KindTransport = "transport"
)

// Verdict is a serializable summary of a Result.
type Verdict struct {
	Failure   bool   `json:"failure"`
	Kind      string `json:"kind"`
	Fault     *Fault `json:"fault,omitempty"`
	Error     string `json:"error,omitempty"`
	Operation string `json:"operation,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Header    string `json:"header,omitempty"`
}

func Describe(r *Result) Verdict {
	v := Verdict{
		Failure: r.IsException(),
		Header:  elementXML(r.Header()),
	}

	if !r.IsException() {
		v.Kind = KindSuccess
		if el, ok := r.data.(*etree.Element); ok && el != nil {
			v.Operation = el.Tag
			v.Payload = elementXML(el)
		}
		return v
	}

	err := r.Exception()
	v.Error = err.Error()

	var malformed *MalformedFaultError
	switch fault, ok := r.Fault(); {
	case ok:
		v.Kind = KindFault
		v.Fault = fault
	case errors.As(err, &malformed):
		v.Kind = KindMalformed
	default:
		v.Kind = KindTransport
	}
	return v
}

func elementXML(el *etree.Element) string {
	if el == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}
