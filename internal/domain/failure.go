package domain

import (
	"errors"
	"fmt"
)

// FailureCode — категория ожидаемого отказа, видимая вызывающей стороне.
type FailureCode string

const (
	CodeBlocked           FailureCode = "BLOCKED"
	CodeNoToken           FailureCode = "NO_TOKEN"
	CodeSessionExpired    FailureCode = "SESSION_EXPIRED"
	CodeSessionRenewed    FailureCode = "SESSION_RENEWED"
	CodeInvalidAccount    FailureCode = "INVALID_ACCOUNT"
	CodeRejected          FailureCode = "REJECTED"
	CodePaymentFailed     FailureCode = "PAYMENT_FAILED"
	CodeInsufficientFunds FailureCode = "INSUFFICIENT_FUNDS"
	CodeNoPackage         FailureCode = "NO_PACKAGE"
	CodeInvalidCode       FailureCode = "INVALID_CODE"
	CodeUnauthorized      FailureCode = "UNAUTHORIZED"
	CodeSystemError       FailureCode = "SYSTEM_ERROR"
)

// CredentialProblem — означает ли код, что сохранённая сессия непригодна.
func (c FailureCode) CredentialProblem() bool {
	return c == CodeNoToken || c == CodeSessionExpired
}

// Retryable — стоит ли повторить заказ после повторного входа.
func (c FailureCode) Retryable() bool {
	return c == CodeSessionRenewed || c == CodeSessionExpired || c == CodeNoToken
}

// Failure — типизированная ошибка ожидаемых отказов.
type Failure struct {
	Code    FailureCode
	Message string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Code)
	}
	return string(f.Code) + ": " + f.Message
}

// Fail — собрать *Failure с форматированным сообщением.
func Fail(code FailureCode, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf — код отказа для любой ошибки; неизвестные ошибки дают SYSTEM_ERROR.
func CodeOf(err error) FailureCode {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Code
	}
	if errors.Is(err, ErrInsufficientFunds) {
		return CodeInsufficientFunds
	}
	return CodeSystemError
}

// MessageOf — сообщение витрины из err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}
