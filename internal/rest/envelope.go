package rest

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"idprest/pkg/logger"
)

const contentTypeJSON = "application/json;charset=UTF-8"

// LocalizedEnvelope wraps a successful payload together with the resolved
// locale.
type LocalizedEnvelope struct {
	Lang     string `json:"lang"`
	Response any    `json:"response"`
}

// ErrorPayload is the body of every failed request.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Fields  string `json:"fields"`
}

func Wrap(locale string, payload any) LocalizedEnvelope {
	return LocalizedEnvelope{Lang: locale, Response: payload}
}

// WriteJSON encodes v before touching w so that an encoding failure can still
// be reported with a proper status.
func WriteJSON(w http.ResponseWriter, status int, v any, log *zap.SugaredLogger) {
	log = logger.OrNop(log)
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorw("could not encode response", "err", err)
		e := encodingFailure()
		WriteError(w, e.Code, e.Message, e.Fields, log)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		log.Warnw("could not write response", "err", err)
	}
}

// WriteError writes an ErrorPayload with code as the HTTP status.
func WriteError(w http.ResponseWriter, code int, message, fields string, log *zap.SugaredLogger) {
	log = logger.OrNop(log)
	b, err := json.Marshal(ErrorPayload{Code: code, Message: message, Fields: fields})
	if err != nil {
		// ErrorPayload holds only strings and an int.
		http.Error(w, message, code)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		log.Warnw("could not write error response", "err", err)
	}
}
