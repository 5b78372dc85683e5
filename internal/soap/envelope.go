package soap

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

var (
	ErrNoEnvelope = errors.New("soap: document has no Envelope element")
	ErrNoBody     = errors.New("soap: envelope has no Body element")
)

// Envelope is a parsed SOAP envelope. Header, Payload and Fault are nil when
// the response does not carry them.
type Envelope struct {
	Doc       *etree.Document
	Namespace string
	Header    *etree.Element
	Body      *etree.Element
	Payload   *etree.Element
	Fault     *etree.Element
}

func ParseEnvelope(raw []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("soap parse: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, ErrNoEnvelope
	}

	env := &Envelope{
		Doc:       doc,
		Namespace: root.NamespaceURI(),
	}
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "Header":
			env.Header = child
		case "Body":
			env.Body = child
		}
	}
	if env.Body == nil {
		return nil, ErrNoBody
	}

	for _, child := range env.Body.ChildElements() {
		if child.Tag == "Fault" {
			env.Fault = child
			break
		}
		if env.Payload == nil {
			env.Payload = child
		}
	}

	return env, nil
}

// Interpreter turns parsed envelopes into results.
type Interpreter struct {
	Extractor Extractor
}

// Interpret uses a lenient extractor.
func Interpret(env *Envelope) *Result {
	return Interpreter{}.Interpret(env)
}

func (in Interpreter) Interpret(env *Envelope) *Result {
	if env == nil {
		return NewResult(&TransportError{Op: "interpret", Err: ErrNoEnvelope}, true, nil)
	}
	if env.Fault != nil {
		fault, err := in.Extractor.Extract(env.Fault)
		if err != nil {
			return NewResult(err, true, env.Header)
		}
		return NewResult(fault, true, env.Header)
	}
	return NewResult(env.Payload, false, env.Header)
}

// InterpretBytes parses raw and interprets it. Parse failures are stored as
// a TransportError.
func (in Interpreter) InterpretBytes(raw []byte) *Result {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return NewResult(&TransportError{Op: "parse", Err: err}, true, nil)
	}
	return in.Interpret(env)
}

// InterpretBytes uses a lenient extractor.
func InterpretBytes(raw []byte) *Result {
	return Interpreter{}.InterpretBytes(raw)
}
