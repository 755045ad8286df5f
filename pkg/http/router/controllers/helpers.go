package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

type envelope map[string]any

func (api *routingAPI) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func (api *routingAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	if err := api.writeJSON(w, status, envelope{"error": resp.Error}, nil); err != nil {
		api.log.Error("failed to write error response", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *routingAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

func (api *routingAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("internal server error", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal", "the server encountered a problem and could not process your request")
}

// getStatusCode writes err with the HTTP status matching its kind.
func (api *routingAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		api.log.Warn("routing request failed", zap.String("path", r.URL.Path), zap.String("kind", util.KindName(err)), zap.Error(err))
	}
	api.errorResponse(w, r, status, util.KindName(err), err.Error())
}

func statusOf(err error) int {
	switch util.KindOf(err) {
	case util.ErrInvalidRequest, util.ErrInvalidProfile, util.ErrProfileUpload:
		return http.StatusBadRequest
	case util.ErrEmptyRoute, util.ErrNoRouteFound:
		return http.StatusNotFound
	case util.ErrMissingDataFile:
		return http.StatusUnprocessableEntity
	case util.ErrRemoteTimeout, util.ErrLocalEngineTimeout, util.ErrEngineTimeout:
		return http.StatusGatewayTimeout
	case util.ErrLocalEngineUnavailable:
		return http.StatusServiceUnavailable
	case util.ErrNetwork, util.ErrRemote, util.ErrMalformedResponse, util.ErrLocalEngineExecutionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) []error {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	errs := make([]error, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
