package response

import (
	"errors"

	"marketplace-api/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New keeps data non-null in the JSON envelope.
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// FromError maps domain sentinels to the envelope exactly once, so raw
// storage errors never leak to callers.
func FromError(err error) Resp {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return Error(CodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return Error(CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return Error(CodeForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return Error(CodeConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition):
		return Error(CodeUnprocessable, err.Error())
	case errors.Is(err, domain.ErrExternalService):
		return Error(CodeBadGateway, err.Error())
	default:
		return Error(CodeServerError, "internal error")
	}
}
