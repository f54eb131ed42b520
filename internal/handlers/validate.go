package handlers

import (
	"unicode/utf8"

	"collabforms/internal/fault"
	"collabforms/internal/workflow"
)

// Size limits for editor and directory payloads. Semantic rules live in
// the workflow service; these only bound what a request may carry.
const (
	maxTitleLen        = 300
	maxSections        = 50
	maxQuestions       = 100
	maxQuestionTextLen = 2_000
	maxOptions         = 50
	maxOptionLen       = 300
	maxUserNameLen     = 200
)

// validateFormInput checks the size of an editor payload and returns the
// first violation found.
func validateFormInput(in workflow.FormInput) error {
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return fault.Validationf("title is too long (max %d characters)", maxTitleLen)
	}
	if len(in.Sections) > maxSections {
		return fault.Validationf("too many sections (max %d)", maxSections)
	}
	for i, sec := range in.Sections {
		if utf8.RuneCountInString(sec.Title) > maxTitleLen {
			return fault.Validationf("section %d title is too long (max %d characters)", i+1, maxTitleLen)
		}
		if len(sec.Questions) > maxQuestions {
			return fault.Validationf("section %d has too many questions (max %d)", i+1, maxQuestions)
		}
		for _, q := range sec.Questions {
			if utf8.RuneCountInString(q.Text) > maxQuestionTextLen {
				return fault.Validationf("section %d: question text is too long (max %d characters)", i+1, maxQuestionTextLen)
			}
			if len(q.Options) > maxOptions {
				return fault.Validationf("section %d: too many options (max %d)", i+1, maxOptions)
			}
			for _, opt := range q.Options {
				if utf8.RuneCountInString(opt) > maxOptionLen {
					return fault.Validationf("section %d: option is too long (max %d characters)", i+1, maxOptionLen)
				}
			}
		}
	}
	return nil
}

// validateUserName bounds a user's display name.
func validateUserName(name string) error {
	if utf8.RuneCountInString(name) > maxUserNameLen {
		return fault.Validationf("name is too long (max %d characters)", maxUserNameLen)
	}
	return nil
}
