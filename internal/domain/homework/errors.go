package homework

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a poll cycle can produce.
type ErrorKind int

const (
	KindUnknown    ErrorKind = iota // anything outside the taxonomy, e.g. context cancellation
	KindAPIRequest                  // transport failure or unparsable success body
	KindAPIStatus                   // non-2xx HTTP response
	KindSchema                      // malformed payload shape
	KindDelivery                    // chat send failure, never leaves the Notifier
)

func (k ErrorKind) String() string {
	switch k {
	case KindAPIRequest:
		return "api_request"
	case KindAPIStatus:
		return "api_status"
	case KindSchema:
		return "schema"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Reasons reported by SchemaError.
const (
	ReasonNotRecord        = "not a record"
	ReasonMissingHomeworks = "missing homeworks key"
	ReasonHomeworksNotList = "homeworks not a list"
	ReasonEntryNotRecord   = "homework not a record"
	ReasonMissingName      = "missing homework_name"
	ReasonUnknownStatus    = "unknown status"
)

// APIRequestError wraps a transport-level failure or an undecodable success body.
type APIRequestError struct {
	Err error
}

func (e *APIRequestError) Error() string {
	return fmt.Sprintf("ошибка при запросе к API: %v", e.Err)
}

func (e *APIRequestError) Unwrap() error { return e.Err }

func (e *APIRequestError) Kind() ErrorKind { return KindAPIRequest }

// APIStatusError is returned when the API answers with a non-2xx status.
// Message holds the API's own "message" field when it could be extracted.
type APIStatusError struct {
	StatusCode int
	Message    string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("код ответа API не 2xx: %d", e.StatusCode)
}

func (e *APIStatusError) Kind() ErrorKind { return KindAPIStatus }

// SchemaError reports an API payload that does not have the expected shape.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "неверный формат ответа API: " + e.Reason
}

func (e *SchemaError) Kind() ErrorKind { return KindSchema }

// DeliveryError wraps a failed chat send.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("не удалось отправить сообщение в чат %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Kind() ErrorKind { return KindDelivery }

// KindOf returns the kind of the first error in err's chain that carries one.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

func schemaErr(reason string) error {
	return &SchemaError{Reason: reason}
}
