package account

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	MissingField
	InvalidEmail
	WeakPassword
	PasswordMismatch
	InvalidPhone
	InvalidRole
	SchoolNameTaken
	EmailInUse
	RegistrationDisabled
	UserRecordWriteFailed
	SchoolRecordWriteFailed
	InvalidCredentials
	AccountDisabled
	TooManyAttempts
	InvalidSchoolName
	InvalidNationalID
)

var kindNames = map[Kind]string{
	Unknown:                 "unknown",
	MissingField:            "missing_field",
	InvalidEmail:            "invalid_email",
	WeakPassword:            "weak_password",
	PasswordMismatch:        "password_mismatch",
	InvalidPhone:            "invalid_phone",
	InvalidRole:             "invalid_role",
	SchoolNameTaken:         "school_name_taken",
	EmailInUse:              "email_in_use",
	RegistrationDisabled:    "registration_disabled",
	UserRecordWriteFailed:   "user_record_write_failed",
	SchoolRecordWriteFailed: "school_record_write_failed",
	InvalidCredentials:      "invalid_credentials",
	AccountDisabled:         "account_disabled",
	TooManyAttempts:         "too_many_attempts",
	InvalidSchoolName:       "invalid_school_name",
	InvalidNationalID:       "invalid_national_id",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return kindNames[Unknown]
}

// Operations an Error can come from.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpLogout   = "logout"
)

// Error is the single terminal error of a failed account operation.
//
// Step names the step that failed and is empty for input errors.
// Compensated reports whether every rollback that ran succeeded. Err keeps
// the underlying cause for logs; users get Message.
type Error struct {
	Op          string
	Kind        Kind
	Field       string
	Step        string
	Compensated bool
	Err         error
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.Kind.String()
	if e.Field != "" {
		s += " (" + e.Field + ")"
	}
	if e.Step != "" {
		s += fmt.Sprintf(" at %s, compensated=%t", e.Step, e.Compensated)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the text shown to the user.
func (e *Error) Message() string {
	if e.Op == OpLogin {
		if m, ok := loginMessages[e.Kind]; ok {
			return m
		}
	}
	if m, ok := messages[e.Kind]; ok {
		return m
	}
	return messages[Unknown]
}

// KindOf returns the Kind of err, or Unknown when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unknown
}

var messages = map[Kind]string{
	Unknown:                 "حدث خطأ في التسجيل",
	MissingField:            "جميع الحقول مطلوبة",
	InvalidEmail:            "البريد الإلكتروني غير صحيح",
	WeakPassword:            "كلمة المرور يجب أن تكون 6 أحرف على الأقل",
	PasswordMismatch:        "كلمات المرور غير متطابقة",
	InvalidPhone:            "رقم الواتساب غير صحيح",
	InvalidRole:             "نوع الحساب غير صحيح",
	SchoolNameTaken:         "اسم المدرسة مستخدم بالفعل",
	EmailInUse:              "البريد الإلكتروني مستخدم بالفعل",
	RegistrationDisabled:    "التسجيل غير متاح حالياً",
	UserRecordWriteFailed:   "فشل في حفظ بيانات المستخدم",
	SchoolRecordWriteFailed: "فشل في إنشاء بيانات المدرسة",
	InvalidCredentials:      "خطأ في البريد الإلكتروني أو كلمة المرور",
	AccountDisabled:         "تم تعطيل هذا الحساب",
	TooManyAttempts:         "تم تجاوز عدد محاولات تسجيل الدخول. يرجى المحاولة لاحقاً",
	InvalidSchoolName:       "اسم المدرسة يجب ألا يحتوي على الرموز / . # $ [ ]",
	InvalidNationalID:       "رقم الهوية غير صحيح",
}

var loginMessages = map[Kind]string{
	Unknown:      "حدث خطأ أثناء تسجيل الدخول. يرجى المحاولة مرة أخرى",
	MissingField: "يرجى إدخال البريد الإلكتروني وكلمة المرور",
	InvalidEmail: "يرجى إدخال بريد إلكتروني صحيح",
	WeakPassword: "يجب أن تتكون كلمة المرور من 6 أحرف على الأقل",
}
