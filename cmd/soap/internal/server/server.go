package server

import (
	"errors"
	"fmt"
	"net/http"

	"csfe-soap/cmd/soap/internal/wsdl"
	"csfe-soap/internal/common"
	M "csfe-soap/internal/common/models"
	"csfe-soap/internal/consts"
	"csfe-soap/internal/soap"

	"github.com/beevik/etree"
	CharmLog "github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

var mockAccounts = []M.Account{
	{ID: "0b6bd3c2-6f4a-4c35-9b0e-2d3c1f7a0001", Name: "testuser@example.com", Status: "active", COS: "default"},
	{ID: "0b6bd3c2-6f4a-4c35-9b0e-2d3c1f7a0002", Name: "alice@example.com", Status: "active", COS: "premium"},
	{ID: "0b6bd3c2-6f4a-4c35-9b0e-2d3c1f7a0003", Name: "bob@example.com", Status: "locked", COS: "default"},
	{ID: "0b6bd3c2-6f4a-4c35-9b0e-2d3c1f7a0004", Name: "closed@example.com", Status: "closed"},
}

const serverVersion = "8.8.15_GA_mock"

// Server is a mock CSFE SOAP endpoint.
type Server struct {
	auth   *common.Authenticator
	port   int
	logger *CharmLog.Logger
}

func New(auth *common.Authenticator, port int, loggerParent *CharmLog.Logger) *Server {
	return &Server{
		auth:   auth,
		port:   port,
		logger: loggerParent.WithPrefix("Handler"),
	}
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(consts.SOAP_PATH, s.serveWSDL).Queries("wsdl", "").Methods("GET")
	r.HandleFunc(consts.SOAP_PATH+"/wsdl", s.serveWSDL).Methods("GET")
	r.HandleFunc(consts.SOAP_PATH, s.handleSOAP).Methods("POST")

	return r
}

func (s *Server) serveWSDL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(wsdl.GetWSDL(s.port)))
}

func (s *Server) handleSOAP(w http.ResponseWriter, r *http.Request) {
	raw, err := common.ReadLimited(r.Body, consts.MAX_BODY_BYTES)
	if errors.Is(err, common.ErrTooLarge) {
		s.sendFault(w, nil, &soap.Fault{Code: soap.Sender, Reason: fmt.Sprintf("request exceeds %d bytes", consts.MAX_BODY_BYTES), ErrorCode: "service.INVALID_REQUEST"})
		return
	}
	if err != nil {
		s.sendFault(w, nil, &soap.Fault{Code: soap.Sender, Reason: "could not read request body", ErrorCode: "service.PARSE_ERROR"})
		return
	}

	env, err := soap.ParseEnvelope(raw)
	if err != nil {
		s.sendFault(w, nil, &soap.Fault{Code: soap.Sender, Reason: "malformed SOAP envelope: " + err.Error(), ErrorCode: "service.PARSE_ERROR"})
		return
	}

	requestID := headerText(env.Header, "./context/requestId")
	logger := s.logger.With("requestId", requestID)

	switch env.Namespace {
	case consts.SOAP12_NAMESPACE:
	case consts.SOAP11_NAMESPACE:
		s.sendLegacyFault(w, &soap.Fault{Code: soap.VersionMismatch, Reason: "SOAP 1.1 is not supported; use SOAP 1.2"})
		return
	default:
		s.sendFault(w, env, &soap.Fault{Code: soap.VersionMismatch, Reason: "unknown envelope namespace " + env.Namespace})
		return
	}

	token := headerText(env.Header, "./context/authToken")
	if token == "" {
		s.sendFault(w, env, &soap.Fault{Code: soap.Sender, Reason: "no valid authtoken present", ErrorCode: "service.AUTH_REQUIRED"})
		return
	}
	user, err := s.auth.Validate(token)
	if err != nil {
		s.sendFault(w, env, &soap.Fault{Code: soap.Sender, Reason: "auth credentials have expired", ErrorCode: "service.AUTH_EXPIRED"})
		return
	}

	if env.Payload == nil {
		s.sendFault(w, env, &soap.Fault{Code: soap.Sender, Reason: "no document specified", ErrorCode: "service.INVALID_REQUEST"})
		return
	}

	logger.Info("Received request", "operation", env.Payload.Tag, "user", user.Username)
	switch env.Payload.Tag {
	case "GetInfoRequest":
		account, ok := findAccount("name", user.Email)
		if !ok {
			s.sendFault(w, env, noSuchAccount(user.Email))
			return
		}
		s.sendResponse(w, env, M.GetInfoResponse{ID: account.ID, Name: account.Name, Version: serverVersion})

	case "GetAccountRequest":
		selector := env.Payload.SelectElement("account")
		if selector == nil || selector.Text() == "" {
			s.sendFault(w, env, &soap.Fault{Code: soap.Sender, Reason: "invalid request: missing required element: account", ErrorCode: "service.INVALID_REQUEST"})
			return
		}
		by := selector.SelectAttrValue("by", "name")
		account, ok := findAccount(by, selector.Text())
		if !ok {
			s.sendFault(w, env, noSuchAccount(selector.Text()))
			return
		}
		logger.Info("Responding with account", "id", account.ID, "name", account.Name)
		s.sendResponse(w, env, M.GetAccountResponse{Account: account})

	case "NoOpRequest":
		s.sendResponse(w, env, M.NoOpResponse{})

	default:
		s.sendFault(w, env, &soap.Fault{
			Code:      soap.Sender,
			Reason:    "unknown document: " + env.Payload.Tag,
			ErrorCode: "service.UNKNOWN_DOCUMENT",
		})
	}
}

func (s *Server) sendResponse(w http.ResponseWriter, env *soap.Envelope, body interface{}) {
	out, err := soap.NewEnvelopeBuilder().
		WithHeader(responseContext(env)).
		WithBody(body).
		Build()
	if err != nil {
		s.sendFault(w, env, &soap.Fault{Code: soap.Receiver, Reason: "could not build SOAP response", ErrorCode: "service.FAILURE"})
		return
	}

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.Write(out)
}

func (s *Server) sendFault(w http.ResponseWriter, env *soap.Envelope, fault *soap.Fault) {
	ctx := responseContext(env)
	fault.Trace = ctx.RequestID

	out, err := soap.NewEnvelopeBuilder().
		WithHeader(ctx).
		WithBody(soap.FaultBody(fault)).
		Build()
	if err != nil {
		s.logger.Error("Could not build SOAP fault", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeFault(w, fault, out)
}

func (s *Server) sendLegacyFault(w http.ResponseWriter, fault *soap.Fault) {
	out, err := soap.NewEnvelopeBuilder().
		WithNamespace(consts.SOAP11_NAMESPACE).
		WithBody(soap.LegacyFaultBody(fault)).
		Build()
	if err != nil {
		s.logger.Error("Could not build SOAP fault", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeFault(w, fault, out)
}

func (s *Server) writeFault(w http.ResponseWriter, fault *soap.Fault, out []byte) {
	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	if fault.Code == soap.Sender {
		w.WriteHeader(http.StatusBadRequest)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}

	s.logger.Error("Responding with SOAP fault", "code", fault.Code, "reason", fault.Reason, "errorCode", fault.ErrorCode)
	w.Write(out)
}

func responseContext(env *soap.Envelope) soap.RequestContext {
	if env == nil {
		return soap.RequestContext{}
	}
	return soap.RequestContext{RequestID: headerText(env.Header, "./context/requestId")}
}

func headerText(header *etree.Element, path string) string {
	if header == nil {
		return ""
	}
	if el := header.FindElement(path); el != nil {
		return el.Text()
	}
	return ""
}

func findAccount(by, value string) (M.Account, bool) {
	for _, a := range mockAccounts {
		switch by {
		case "id":
			if a.ID == value {
				return a, true
			}
		default:
			if a.Name == value {
				return a, true
			}
		}
	}
	return M.Account{}, false
}

func noSuchAccount(name string) *soap.Fault {
	return &soap.Fault{
		Code:      soap.Sender,
		Reason:    fmt.Sprintf("no such account: %s", name),
		ErrorCode: "account.NO_SUCH_ACCOUNT",
		Args:      map[string]string{"name": name},
	}
}
