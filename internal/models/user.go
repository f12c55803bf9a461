package models

import "time"

type Role string

const (
	Admin   Role = "admin"
	Teacher Role = "teacher"
	Staff   Role = "staff"
)

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	switch r {
	case Admin, Teacher, Staff:
		return true
	}
	return false
}

// UserRecord хранится по пути users/{uid}.
type UserRecord struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	SchoolName string    `json:"schoolName"`
	Role       Role      `json:"role"`
	Whatsapp   string    `json:"whatsapp"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Поля, которые нельзя менять после создания.
var ImmutableUserFields = []string{"uid", "createdAt"}
