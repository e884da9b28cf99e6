package models

// EmailRequest describes a single transactional email.
type EmailRequest struct {
	To          string `json:"to" validate:"required,email"`
	ToName      string `json:"toName,omitempty"`
	Subject     string `json:"subject" validate:"required"`
	Content     string `json:"content" validate:"required"`
	HTMLContent string `json:"htmlContent,omitempty"`
}
