// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"collabforms/internal/fault"
	"collabforms/internal/models"
)

// answerRule constrains the answers accepted for one question type.
type answerRule struct {
	kind    models.AnswerKind
	expr    string
	message string
	program *vm.Program
}

// Rules are evaluated with "value" bound to the answer and "options" bound
// to the question's options. Blank answers skip the rule.
var answerRules = map[models.QuestionType]*answerRule{
	models.QuestionShortAnswer: {kind: models.AnswerText},
	models.QuestionParagraph:   {kind: models.AnswerText},
	models.QuestionSignature:   {kind: models.AnswerText},
	models.QuestionMultipleChoice: {
		kind:    models.AnswerText,
		expr:    `value in options`,
		message: "must be one of the listed options",
	},
	models.QuestionCheckboxes: {
		kind:    models.AnswerList,
		expr:    `all(value, {# in options}) && len(value) <= len(options)`,
		message: "must only contain listed options",
	},
	models.QuestionRating: {
		kind:    models.AnswerText,
		expr:    `value matches "^[1-5]$"`,
		message: "must be a whole number from 1 to 5",
	},
	models.QuestionDate: {
		kind:    models.AnswerText,
		expr:    `value matches "^[0-9]{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$"`,
		message: "must be a date formatted YYYY-MM-DD",
	},
	models.QuestionMobile: {
		kind:    models.AnswerText,
		expr:    `value matches "^\\+?[0-9][0-9 ()-]{5,18}[0-9]$"`,
		message: "must be a phone number",
	},
	models.QuestionEmail: {
		kind:    models.AnswerText,
		expr:    `value matches "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"`,
		message: "must be an email address",
	},
	models.QuestionURL: {
		kind:    models.AnswerText,
		expr:    `value matches "^https?://[^\\s/$.?#][^\\s]*$"`,
		message: "must be an http or https URL",
	},
	models.QuestionFileUpload: {
		kind:    models.AnswerFile,
		expr:    `value.key != "" && value.size >= 0`,
		message: "must reference an uploaded file",
	},
}

func init() {
	for qt, rule := range answerRules {
		if rule.expr == "" {
			continue
		}
		program, err := expr.Compile(rule.expr, expr.Env(sampleEnv(rule.kind)), expr.AsBool())
		if err != nil {
			panic(fmt.Sprintf("compile %s answer rule: %v", qt, err))
		}
		rule.program = program
	}
}

// sampleEnv gives the compiler the shape of the evaluation environment.
func sampleEnv(kind models.AnswerKind) map[string]any {
	env := map[string]any{"options": []string{}}
	switch kind {
	case models.AnswerList:
		env["value"] = []string{}
	case models.AnswerFile:
		env["value"] = map[string]any{}
	default:
		env["value"] = ""
	}
	return env
}

// ValidateAnswers checks submitted answers against the questions of a
// section. Unknown question ids are rejected, required questions must be
// answered, and every non-blank answer must satisfy its type's rule.
func ValidateAnswers(questions models.Questions, answers models.Answers) error {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if questions.Find(id) == nil {
			return fault.Validationf("answer for unknown question %q", id)
		}
	}

	for _, q := range questions {
		a, ok := answers[q.ID]
		if !ok || a.IsBlank() {
			if q.Required {
				return fault.Validationf("question %q is required", q.Text)
			}
			continue
		}

		rule, known := answerRules[q.Type]
		if !known {
			return fault.Validationf("question %q has unsupported type %q", q.Text, q.Type)
		}
		if a.Kind != rule.kind {
			return fault.Validationf("answer to %q has the wrong shape for a %s question", q.Text, q.Type)
		}
		if rule.program == nil {
			continue
		}

		options := q.Options
		if options == nil {
			options = []string{}
		}
		out, err := expr.Run(rule.program, map[string]any{"value": a.Raw(), "options": options})
		if err != nil {
			return fault.Validationf("answer to %q %s", q.Text, rule.message)
		}
		if ok, _ := out.(bool); !ok {
			return fault.Validationf("answer to %q %s", q.Text, rule.message)
		}
	}
	return nil
}
