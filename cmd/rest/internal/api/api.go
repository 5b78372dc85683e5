package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"csfe-soap/internal/common"
	"csfe-soap/internal/consts"
	"csfe-soap/internal/soap"

	CharmLog "github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type API struct {
	auth   *common.Authenticator
	logger *CharmLog.Logger
}

func New(auth *common.Authenticator, loggerParent *CharmLog.Logger) *API {
	return &API{auth: auth, logger: loggerParent.WithPrefix("API")}
}

func (a *API) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		token = strings.TrimPrefix(token, "Bearer ")
		if _, err := a.auth.Validate(token); err != nil {
			writeJSON(w, http.StatusUnauthorized, APIResponse{
				Success: false,
				Error:   "Authentication Required",
			})
			return
		}

		next(w, r)
	}
}

func (a *API) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: "OK"})
	}).Methods("GET")

	r.HandleFunc("/interpret", a.authMiddleware(a.interpret)).Methods("POST")

	return r
}

// interpret answers 200 for any response it could read; a SOAP failure is
// reported in the verdict, not as an HTTP error.
func (a *API) interpret(w http.ResponseWriter, r *http.Request) {
	raw, err := common.ReadLimited(r.Body, consts.MAX_BODY_BYTES)
	if errors.Is(err, common.ErrTooLarge) {
		a.logger.Warn("Rejected oversized body", "limit", consts.MAX_BODY_BYTES)
		writeJSON(w, http.StatusRequestEntityTooLarge, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("Body exceeds %d bytes", consts.MAX_BODY_BYTES),
		})
		return
	}
	if err != nil || len(raw) == 0 {
		a.logger.Error("Could not read request body", "error", err)
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "Empty or unreadable body"})
		return
	}

	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	interpreter := soap.Interpreter{Extractor: soap.Extractor{Strict: strict}}

	verdict := soap.Describe(interpreter.InterpretBytes(raw))
	a.logger.Info("Interpreted response", "kind", verdict.Kind, "operation", verdict.Operation, "strict", strict)

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: verdict})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
