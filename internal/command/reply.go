package command

import "motorvault/internal/model"

// CodeInternal is reported for failures that are not domain errors. Their
// message is not exposed.
const CodeInternal = "internal_error"

type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reply is the envelope returned to command senders.
type Reply struct {
	OK    bool        `json:"ok"`
	Data  any         `json:"data,omitempty"`
	Error *ReplyError `json:"error,omitempty"`
}

func NewReply(data any, err error) Reply {
	if err == nil {
		return Reply{OK: true, Data: data}
	}
	return Reply{Error: ErrorOf(err)}
}

func ErrorOf(err error) *ReplyError {
	code := model.Code(err)
	if code == "" {
		return &ReplyError{Code: CodeInternal, Message: "internal error"}
	}
	return &ReplyError{Code: code, Message: err.Error()}
}
