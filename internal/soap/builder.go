package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"csfe-soap/internal/consts"
)

type EnvelopeBuilder struct {
	xmlns  string
	header interface{}
	body   interface{}
	prefix string
	indent string
}

func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{xmlns: consts.SOAP12_NAMESPACE}
}

func (builder *EnvelopeBuilder) WithNamespace(namespace string) *EnvelopeBuilder {
	builder.xmlns = namespace
	return builder
}

func (builder *EnvelopeBuilder) WithHeader(header interface{}) *EnvelopeBuilder {
	builder.header = header
	return builder
}

func (builder *EnvelopeBuilder) WithBody(body interface{}) *EnvelopeBuilder {
	builder.body = body
	return builder
}

func (builder *EnvelopeBuilder) WithIndent(prefix, indent string) *EnvelopeBuilder {
	builder.prefix = prefix
	builder.indent = indent
	return builder
}

type envelopeBlock struct {
	Content interface{} `xml:",any"`
}

func (builder *EnvelopeBuilder) Build() ([]byte, error) {
	if builder.body == nil {
		return nil, fmt.Errorf("soap build: %w", ErrNoBody)
	}

	wrapper := struct {
		XMLName xml.Name       `xml:"soap:Envelope"`
		Xmlns   string         `xml:"xmlns:soap,attr"`
		Header  *envelopeBlock `xml:"soap:Header,omitempty"`
		Body    envelopeBlock  `xml:"soap:Body"`
	}{
		Xmlns: builder.xmlns,
		Body:  envelopeBlock{Content: builder.body},
	}
	if builder.header != nil {
		wrapper.Header = &envelopeBlock{Content: builder.header}
	}

	buffer := &bytes.Buffer{}
	buffer.WriteString(xml.Header)

	encoder := xml.NewEncoder(buffer)
	if builder.indent != "" {
		encoder.Indent(builder.prefix, builder.indent)
	}
	if err := encoder.Encode(wrapper); err != nil {
		return nil, fmt.Errorf("soap build: %w", err)
	}
	return buffer.Bytes(), nil
}

// MARK: - Fault bodies

type faultBody struct {
	XMLName xml.Name     `xml:"soap:Fault"`
	Code    faultValue   `xml:"soap:Code"`
	Reason  faultText    `xml:"soap:Reason"`
	Detail  *faultDetail `xml:"soap:Detail,omitempty"`
}

type faultValue struct {
	Value string `xml:"soap:Value"`
}

type faultText struct {
	Text string `xml:"soap:Text"`
}

type faultDetail struct {
	Error detailError
}

type detailError struct {
	XMLName xml.Name    `xml:"urn:zimbra Error"`
	Code    string      `xml:"Code"`
	Trace   string      `xml:"Trace,omitempty"`
	Args    []detailArg `xml:"a"`
}

type detailArg struct {
	Name  string `xml:"n,attr"`
	Value string `xml:",chardata"`
}

// FaultBody returns a SOAP 1.2 Fault in the CSFE shape, for use with
// EnvelopeBuilder.WithBody. The Detail element is omitted when f has no
// ErrorCode.
func FaultBody(f *Fault) interface{} {
	body := faultBody{
		Code:   faultValue{Value: "soap:" + faultValueName(f.Code)},
		Reason: faultText{Text: f.Reason},
	}
	if f.ErrorCode != "" {
		detail := detailError{Code: f.ErrorCode, Trace: f.Trace}
		names := make([]string, 0, len(f.Args))
		for name := range f.Args {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			detail.Args = append(detail.Args, detailArg{Name: name, Value: f.Args[name]})
		}
		body.Detail = &faultDetail{Error: detail}
	}
	return body
}

type legacyFaultBody struct {
	XMLName xml.Name `xml:"soap:Fault"`
	Code    string   `xml:"faultcode"`
	String  string   `xml:"faultstring"`
}

// LegacyFaultBody returns a SOAP 1.1 Fault.
func LegacyFaultBody(f *Fault) interface{} {
	code := "Server"
	switch f.Code {
	case VersionMismatch:
		code = "VersionMismatch"
	case MustUnderstand:
		code = "MustUnderstand"
	case Sender:
		code = "Client"
	}
	return legacyFaultBody{Code: "soap:" + code, String: f.Reason}
}

func faultValueName(c FaultCode) string {
	switch c {
	case VersionMismatch:
		return "VersionMismatch"
	case MustUnderstand:
		return "MustUnderstand"
	case DataEncodingUnknown:
		return "DataEncodingUnknown"
	case Sender:
		return "Sender"
	case Receiver:
		return "Receiver"
	default:
		return "Unknown"
	}
}
