package domain

import "github.com/google/uuid"

// NewProjectID generates a project id when the remote store cannot assign one.
func NewProjectID() string {
	return uuid.New().String()
}

// NewSectionID generates a section id.
func NewSectionID() string {
	return "sec_" + uuid.New().String()
}
