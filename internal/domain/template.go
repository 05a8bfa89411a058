package domain

import "time"

// Template is a named message pattern with {placeholder} substitution.
// Name is the key and never changes; notifications keep their own rendered copy.
type Template struct {
	Name         string    `json:"name" yaml:"name" dynamodbav:"name" gorm:"primaryKey;size:64"`
	TitlePattern string    `json:"title_template" yaml:"title" dynamodbav:"title_pattern"`
	BodyPattern  string    `json:"body_template" yaml:"body" dynamodbav:"body_pattern" gorm:"not null"`
	Active       bool      `json:"is_active" yaml:"active" dynamodbav:"active" gorm:"not null"`
	CreatedAt    time.Time `json:"created" yaml:"-" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" yaml:"-" dynamodbav:"updated_at"`
}

type TemplateInput struct {
	Name   string `json:"name" validate:"required,max=64"`
	Title  string `json:"title_template"`
	Body   string `json:"body_template" validate:"required"`
	Active *bool  `json:"is_active"`
}
