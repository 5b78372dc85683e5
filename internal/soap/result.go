package soap

import (
	"fmt"
	"net/http"

	"github.com/beevik/etree"
)

// TransportError carries any failure that is not a structured SOAP fault.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error

	// Value holds a non-error failure payload handed to Result.Set.
	Value any
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("transport error: %s: status=%d (%s): %v", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	case e.Err != nil:
		return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("transport error: %v", e.Value)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Result holds either a response payload or a failure, plus the optional
// SOAP header of the response it came from.
type Result struct {
	data        any
	isException bool
	header      *etree.Element
}

func NewResult(data any, isException bool, header *etree.Element) *Result {
	r := &Result{}
	r.Set(data, isException, header)
	return r
}

// Set replaces the whole state of r.
func (r *Result) Set(data any, isException bool, header *etree.Element) {
	*r = Result{data: data, isException: isException, header: header}
}

// Response returns the payload, or the stored failure as the error.
func (r *Result) Response() (any, error) {
	if r.isException {
		return nil, r.Exception()
	}
	return r.data, nil
}

// MustResponse is like Response but panics with the stored failure.
func (r *Result) MustResponse() any {
	data, err := r.Response()
	if err != nil {
		panic(err)
	}
	return data
}

// Exception returns the stored failure, or nil for a successful result.
func (r *Result) Exception() error {
	if !r.isException {
		return nil
	}
	switch v := r.data.(type) {
	case error:
		return v
	default:
		return &TransportError{Value: v}
	}
}

func (r *Result) IsException() bool {
	return r.isException
}

func (r *Result) Header() *etree.Element {
	return r.header
}

// Fault returns the stored SOAP fault, if the failure is a non-nil one.
func (r *Result) Fault() (*Fault, bool) {
	if !r.isException {
		return nil, false
	}
	f, ok := r.data.(*Fault)
	return f, ok && f != nil
}
