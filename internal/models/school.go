package models

import "time"

// DefaultStage подставляется, когда этап обучения не указан при регистрации.
const DefaultStage = "unspecified"

// SchoolRecord хранится по пути schools/{name}; имя школы и есть ключ.
type SchoolRecord struct {
	SchoolInfo SchoolInfo            `json:"schoolInfo"`
	Staff      map[string]StaffEntry `json:"staff,omitempty"`
}

type SchoolInfo struct {
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	Principal Principal `json:"principal"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

type Principal struct {
	Name     string `json:"name"`
	Whatsapp string `json:"whatsapp"`
	Email    string `json:"email"`
}

// StaffEntry лежит в schools/{name}/staff/{nationalId}.
type StaffEntry struct {
	Name       string     `json:"name"`
	JobTitle   string     `json:"jobTitle"`
	NationalID string     `json:"nationalId"`
	CodeNumber string     `json:"codeNumber"`
	Whatsapp   string     `json:"whatsapp"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Поля schoolInfo, которые фиксируются при создании школы.
var ImmutableSchoolInfoFields = []string{"name", "createdAt", "createdBy"}
