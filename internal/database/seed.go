package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"collabforms/internal/models"
)

type seedUser struct {
	name  string
	email string
	role  models.Role
	pin   string
}

// Demo accounts. The PIN of each account is its digit repeated four times.
var seedUsers = []seedUser{
	{"Alice (Admin)", "alice@example.com", models.RoleAdmin, "1111"},
	{"Bob (Marketing)", "bob@example.com", models.RoleUser, "2222"},
	{"Charlie (Sales)", "charlie@example.com", models.RoleUser, "3333"},
	{"Diana (Engineering)", "diana@example.com", models.RoleUser, "4444"},
	{"Eve (Viewer)", "eve@example.com", models.RoleViewer, "5555"},
}

type seedSection struct {
	title    string
	assignee int // index into seedUsers
	done     models.Answers
	qs       models.Questions
}

type seedForm struct {
	title    string
	status   models.FormStatus
	dueDays  int // relative to today; 0 means no due date
	sections []seedSection
}

func q(id string, t models.QuestionType, text string, required bool, options ...string) models.Question {
	return models.Question{ID: id, Type: t, Text: text, Required: required, Options: options}
}

var seedForms = []seedForm{
	{
		title: "Q3 Project Proposal", status: models.FormStatusPublished, dueDays: 10,
		sections: []seedSection{
			{"Executive Summary", 0, models.Answers{
				"summary-1": models.TextAnswer("This project aims to build a new collaborative platform to increase user engagement by 50%."),
				"summary-2": models.TextAnswer("Q4 2024"),
			}, models.Questions{
				q("summary-1", models.QuestionParagraph, "Provide a brief overview of the project.", true),
				q("summary-2", models.QuestionShortAnswer, "What is the projected completion date?", false),
			}},
			{"Marketing Plan", 1, nil, models.Questions{
				q("mkt-1", models.QuestionParagraph, "Describe the target audience for this project.", true),
				q("mkt-2", models.QuestionCheckboxes, "Which channels will be used for promotion?", false,
					"Social Media", "Email Marketing", "Content Marketing", "Paid Ads"),
				q("mkt-3", models.QuestionShortAnswer, "What is the estimated marketing budget?", false),
			}},
			{"Sales Projections", 2, models.Answers{
				"sales-1": models.TextAnswer("$1.2 Million"),
				"sales-2": models.TextAnswer("Enterprise Team"),
			}, models.Questions{
				q("sales-1", models.QuestionShortAnswer, "What are the projected revenue figures for the first year?", true),
				q("sales-2", models.QuestionMultipleChoice, "Which sales team will handle this project?", false,
					"Enterprise Team", "SMB Team", "Direct Sales Team"),
			}},
			{"Technical Specifications", 3, models.Answers{
				"tech-1": models.TextAnswer("React frontend, Node.js backend, PostgreSQL database."),
				"tech-2": models.ListAnswer("Scalability", "Security"),
			}, models.Questions{
				q("tech-1", models.QuestionParagraph, "Outline the technical stack and architecture.", true),
				q("tech-2", models.QuestionCheckboxes, "What are the key technical risks?", false,
					"Scalability", "Security", "Integration", "Performance"),
			}},
		},
	},
	{
		title: "Annual Department Review", status: models.FormStatusPublished, dueDays: -10,
		sections: []seedSection{
			{"Marketing Department Achievements", 1, nil, models.Questions{
				q("rev-mkt-1", models.QuestionParagraph, "Summarize the department's key achievements this year.", false),
				q("rev-mkt-2", models.QuestionShortAnswer, "What was the most successful campaign?", false),
			}},
			{"Sales Department Performance", 2, nil, models.Questions{
				q("rev-sales-1", models.QuestionShortAnswer, "Total revenue generated this year?", false),
				q("rev-sales-2", models.QuestionParagraph, "What were the biggest challenges faced?", false),
			}},
			{"Engineering Team Milestones", 3, nil, models.Questions{
				q("rev-eng-1", models.QuestionParagraph, "Describe major product releases and technical milestones.", false),
				q("rev-eng-2", models.QuestionMultipleChoice, "How would you rate team morale?", false,
					"Excellent", "Good", "Fair", "Poor"),
				q("rev-eng-3", models.QuestionSignature, "Head of Engineering Signature", true),
			}},
		},
	},
	{
		title: "Employee Onboarding Checklist", status: models.FormStatusDraft,
		sections: []seedSection{
			{"HR Paperwork", 0, nil, models.Questions{
				q("hr-1", models.QuestionShortAnswer, "Employee Full Name", true),
				q("hr-2", models.QuestionDate, "Start Date", false),
				q("hr-3", models.QuestionSignature, "Employee Agreement Signature", true),
			}},
			{"IT Setup", 3, nil, models.Questions{
				q("it-1", models.QuestionCheckboxes, "Hardware to be provided", false, "Laptop", "Monitor", "Keyboard", "Mouse"),
				q("it-2", models.QuestionMultipleChoice, "Access Level Required", false, "Standard User", "Developer", "Admin"),
			}},
		},
	},
}

// Seed populates the database with demo users and forms. It does nothing
// when any user already exists.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ids := make([]uuid.UUID, len(seedUsers))
	for i, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.pin), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}
		ids[i] = uuid.New()
		_, err = tx.Exec(`
			INSERT INTO users (id, name, email, role, color, pin_hash)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ids[i], u.name, u.email, string(u.role), models.Palette[i%len(models.Palette)], string(hash))
		if err != nil {
			return fmt.Errorf("seed insert user %s: %w", u.email, err)
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, f := range seedForms {
		var due *time.Time
		if f.dueDays != 0 {
			d := today.AddDate(0, 0, f.dueDays)
			due = &d
		}

		var formID uuid.UUID
		err := tx.QueryRow(`
			INSERT INTO forms (title, created_by, status, due_date)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, f.title, ids[0], string(f.status), due).Scan(&formID)
		if err != nil {
			return fmt.Errorf("seed insert form %q: %w", f.title, err)
		}

		for i, sec := range f.sections {
			var sectionID uuid.UUID
			err := tx.QueryRow(`
				INSERT INTO sections (form_id, title, assigned_to, sort_order, questions)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
			`, formID, sec.title, ids[sec.assignee], i+1, sec.qs).Scan(&sectionID)
			if err != nil {
				return fmt.Errorf("seed insert section %q: %w", sec.title, err)
			}

			status := models.ResponseStatusPending
			var completedAt *time.Time
			if sec.done != nil {
				status = models.ResponseStatusCompleted
				now := time.Now().UTC()
				completedAt = &now
			}
			_, err = tx.Exec(`
				INSERT INTO responses (section_id, content, filled_by, status, completed_at)
				VALUES ($1, $2, $3, $4, $5)
			`, sectionID, sec.done, ids[sec.assignee], string(status), completedAt)
			if err != nil {
				return fmt.Errorf("seed insert response %q: %w", sec.title, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo data",
		"users", len(seedUsers),
		"forms", len(seedForms),
		"admin", seedUsers[0].email,
	)

	return nil
}
