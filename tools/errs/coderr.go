package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error codes. Every failure that crosses an operation boundary is one of
// these; raw storage/transport errors never leave the layer that saw them.
const (
	CodeUnauthenticated  = 1001 // no verifiable caller identity
	CodeNotFound         = 1002 // referenced profile/conversation/message absent
	CodeConflict         = 1003 // unique constraint hit, benign no-op
	CodeTransientStorage = 1004 // network/lock/storage failure, retry whole op
	CodeValidation       = 1005 // rejected before any store call
	CodeCooldownActive   = 1006 // rate-limited mutation attempted too soon
)

var (
	ErrUnauthenticated  = NewCodeError(CodeUnauthenticated, "unauthenticated")
	ErrNotFound         = NewCodeError(CodeNotFound, "not found")
	ErrConflict         = NewCodeError(CodeConflict, "conflict")
	ErrTransientStorage = NewCodeError(CodeTransientStorage, "transient storage error")
	ErrValidation       = NewCodeError(CodeValidation, "validation failed")
	ErrCooldownActive   = NewCodeError(CodeCooldownActive, "cooldown active")
)

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) Error() string {
	sb := strings.Builder{}
	sb.WriteString(e.Msg)
	sb.WriteString(" [code=")
	sb.WriteString(strconv.Itoa(e.Code))
	sb.WriteString("]")
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: e.Detail}
}

// WithDetail returns a copy carrying extra detail; the receiver is unchanged
// so the package-level sentinels stay clean.
func (e *CodeError) WithDetail(detail string) *CodeError {
	out := e.clone()
	if out.Detail == "" {
		out.Detail = detail
	} else {
		out.Detail += ", " + detail
	}
	return out
}

func (e *CodeError) WithDetailf(format string, args ...any) *CodeError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// Is matches by code, so errors.Is(err, ErrNotFound) works across WithDetail
// copies and wrapping.
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// CodeOf unwraps err down to its CodeError code, or 0 when err carries none.
func CodeOf(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
