package services

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindGateway:
		return "gateway"
	default:
		return "internal"
	}
}

// Error is the typed error every service operation returns. Two errors are
// the same for errors.Is when their codes match, so callers compare against
// the sentinels below regardless of the wrapped cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrCourseNotFound      = newError(KindNotFound, "course_not_found", "Course not found")
	ErrPurchaseNotFound    = newError(KindNotFound, "purchase_not_found", "Purchase not found")
	ErrLectureNotFound     = newError(KindNotFound, "lecture_not_found", "Lecture not found in this course")
	ErrRatingNotFound      = newError(KindNotFound, "rating_not_found", "Rating not found")
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "User not found")
	ErrPaymentNotCompleted = newError(KindConflict, "payment_not_completed", "Payment not completed")
	ErrPurchaseClosed      = newError(KindConflict, "purchase_closed", "Purchase is no longer pending")
	ErrAlreadyEnrolled     = newError(KindConflict, "already_enrolled", "Already enrolled in this course")
	ErrRoleDowngrade       = newError(KindConflict, "role_downgrade", "Educators cannot return to the student role")
	ErrNotEnrolled         = newError(KindForbidden, "not_enrolled", "You are not enrolled in this course")
	ErrInvalidRating       = newError(KindValidation, "invalid_rating", "Rating must be between 1 and 5")
	ErrFreeCourse          = newError(KindValidation, "free_course", "Course is free, enroll directly")
	ErrPaidCourse          = newError(KindValidation, "paid_course", "Course requires a purchase")
	ErrMissingReference    = newError(KindValidation, "missing_reference", "Payment reference is required")
	ErrInvalidMethod       = newError(KindValidation, "invalid_method", "Unknown payment method")
	ErrInvalidRole         = newError(KindValidation, "invalid_role", "Unknown role")
	ErrGateway             = newError(KindGateway, "gateway_error", "Payment provider unavailable")
	ErrInvalidSignature    = newError(KindValidation, "invalid_signature", "Invalid webhook signature")
	ErrInvalidEvent        = newError(KindValidation, "invalid_event", "Malformed webhook event")
	ErrEmailTaken          = newError(KindConflict, "email_taken", "Email already registered")
	ErrInvalidCredentials  = newError(KindAuth, "invalid_credentials", "Invalid credentials")
)

// KindOf reports the kind of err, KindInternal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
