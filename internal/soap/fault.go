package soap

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// FaultCode is the normalized classification of a SOAP fault.
type FaultCode int

const (
	VersionMismatch     FaultCode = -1
	MustUnderstand      FaultCode = -2
	DataEncodingUnknown FaultCode = -3
	Sender              FaultCode = -4
	Receiver            FaultCode = -5
	Unknown             FaultCode = -6
)

func (c FaultCode) String() string {
	switch c {
	case VersionMismatch:
		return "VERSION_MISMATCH"
	case MustUnderstand:
		return "MUST_UNDERSTAND"
	case DataEncodingUnknown:
		return "DATA_ENCODING_UNKNOWN"
	case Sender:
		return "SENDER"
	case Receiver:
		return "RECEIVER"
	default:
		return "UNKNOWN"
	}
}

func (c FaultCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Fault is a SOAP fault extracted from a response. Empty Reason or ErrorCode
// means the response carried no such node.
type Fault struct {
	Code      FaultCode         `json:"code"`
	Reason    string            `json:"reason,omitempty"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Trace     string            `json:"trace,omitempty"`
	Args      map[string]string `json:"args,omitempty"`
}

func (f *Fault) Error() string {
	if f == nil {
		return "soap fault: <nil>"
	}
	if f.ErrorCode != "" {
		return fmt.Sprintf("soap fault: %s: %s (%s)", f.Code, f.Reason, f.ErrorCode)
	}
	return fmt.Sprintf("soap fault: %s: %s", f.Code, f.Reason)
}

// MalformedFaultError reports a Fault element missing a nested node.
type MalformedFaultError struct {
	Path string
}

func (e *MalformedFaultError) Error() string {
	return "malformed soap fault: missing " + e.Path
}

// Extractor turns Fault elements into Fault records. With Strict unset,
// missing nested nodes leave the matching field absent.
type Extractor struct {
	Strict bool
}

// ExtractFault runs a lenient Extractor.
func ExtractFault(el *etree.Element) (*Fault, error) {
	return Extractor{}.Extract(el)
}

func (x Extractor) Extract(el *etree.Element) (*Fault, error) {
	if el == nil {
		return nil, &MalformedFaultError{Path: "Fault"}
	}

	// Code, Reason and Detail share the Fault element's prefix.
	prefix := el.Space
	fault := &Fault{Code: Unknown}

	for _, child := range el.ChildElements() {
		switch child.FullTag() {
		case qualify(prefix, "Code"):
			value, ok := nestedText(child, 2)
			if !ok {
				if x.Strict {
					return nil, &MalformedFaultError{Path: child.FullTag() + "/Value"}
				}
				continue
			}
			fault.Code = mapFaultCode(prefix, value)

		case qualify(prefix, "Reason"):
			value, ok := nestedText(child, 2)
			if !ok {
				if x.Strict {
					return nil, &MalformedFaultError{Path: child.FullTag() + "/Text"}
				}
				continue
			}
			fault.Reason = value

		case qualify(prefix, "Detail"):
			value, ok := nestedText(child, 3)
			if !ok {
				if x.Strict {
					return nil, &MalformedFaultError{Path: child.FullTag() + "/Error/Code"}
				}
				continue
			}
			fault.ErrorCode = value
			readDetailExtras(fault, child.ChildElements()[0])

		// SOAP 1.1 faults use unqualified children.
		case "faultcode":
			fault.Code = mapLegacyFaultCode(strings.TrimSpace(child.Text()))
		case "faultstring":
			fault.Reason = strings.TrimSpace(child.Text())
		case "detail":
			if value, ok := nestedText(child, 3); ok {
				fault.ErrorCode = value
				readDetailExtras(fault, child.ChildElements()[0])
			}
		}
	}

	return fault, nil
}

func mapFaultCode(prefix, value string) FaultCode {
	switch value {
	case qualify(prefix, "VersionMismatch"):
		return VersionMismatch
	case qualify(prefix, "MustUnderstand"):
		return MustUnderstand
	case qualify(prefix, "DataEncodingUnknown"):
		return DataEncodingUnknown
	case qualify(prefix, "Sender"):
		return Sender
	case qualify(prefix, "Receiver"):
		return Receiver
	default:
		return Unknown
	}
}

// mapLegacyFaultCode reads SOAP 1.1 faultcode values, whose prefix is not
// tied to the Fault element.
func mapLegacyFaultCode(value string) FaultCode {
	if i := strings.IndexByte(value, ':'); i >= 0 {
		value = value[i+1:]
	}
	switch value {
	case "VersionMismatch":
		return VersionMismatch
	case "MustUnderstand":
		return MustUnderstand
	case "Client":
		return Sender
	case "Server":
		return Receiver
	default:
		return Unknown
	}
}

func readDetailExtras(fault *Fault, errEl *etree.Element) {
	for _, el := range errEl.ChildElements() {
		switch el.Tag {
		case "Trace":
			fault.Trace = strings.TrimSpace(el.Text())
		case "a":
			name := el.SelectAttrValue("n", "")
			if name == "" {
				continue
			}
			if fault.Args == nil {
				fault.Args = make(map[string]string)
			}
			fault.Args[name] = el.Text()
		}
	}
}

// nestedText follows first child elements until the element depth-1 levels
// below el, and returns its text.
func nestedText(el *etree.Element, depth int) (string, bool) {
	for i := 1; i < depth; i++ {
		children := el.ChildElements()
		if len(children) == 0 {
			return "", false
		}
		el = children[0]
	}
	text := strings.TrimSpace(el.Text())
	if text == "" {
		return "", false
	}
	return text, true
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
