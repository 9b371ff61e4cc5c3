package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// Stable result codes surfaced to callers. Codes in the 1000-1999
// range map to HTTP 400, everything else to the handler's choice.
const (
	CodeRunning = 1000

	CodeTriggerSuccess = 2300
	CodeTriggerError   = 2301
	CodeTriggerInvalid = 2302

	CodeNotifySuccess = 2100
	CodeNotifyError   = 2001

	CodeUploadRequestSuccess = 2401
	CodeUploadRequestError   = 2002

	CodeUploadCompleteSuccess = 2501
	CodeUploadCompleteError   = 2102

	CodeArtifactsSuccess = 2200
	CodeArtifactsSkipped = 2201
	CodeArtifactsInvalid = 2202

	CodeOK           = 2000
	CodeTokenRevoked = 3001
)

type successBody struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Success bool        `json:"success"`
}

type errorBody struct {
	Error   string      `json:"error"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// Success writes the uniform success envelope.
func Success(w http.ResponseWriter, data interface{}, code int, message string) {
	writeJSON(w, http.StatusOK, successBody{
		Code:    code,
		Data:    data,
		Message: message,
		Success: true,
	})
}

// Error writes the uniform error envelope. No internal detail beyond
// the stable code and message reaches the caller.
func Error(w http.ResponseWriter, code int, message string) {
	status := http.StatusInternalServerError
	if code >= 1000 && code < 2000 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{
		Error:   message,
		Success: false,
		Data:    map[string]interface{}{"code": code},
	})
}

// ValidationError is an Error fixed to HTTP 400 regardless of code,
// for request fields rejected before any network call.
func ValidationError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Error:   message,
		Success: false,
		Data:    map[string]interface{}{"code": code},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response body: %v", err)
	}
}
