package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	GitHubID     *int64    `json:"github_id,omitempty" db:"github_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserSession represents a refresh token session
type UserSession struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	RefreshToken string    `json:"refresh_token" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	IPAddress    string    `json:"ip_address" db:"ip_address"`
	UserAgent    string    `json:"user_agent" db:"user_agent"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Assessment represents one user's pass through the career assessment
type Assessment struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	UserID      uuid.UUID      `json:"user_id" db:"user_id"`
	Field       string         `json:"field,omitempty" db:"field"`
	Skills      pq.StringArray `json:"skills" db:"skills"`
	FocusSkills pq.StringArray `json:"focus_skills" db:"focus_skills"`
	Phase       string         `json:"phase" db:"phase"`
	Status      string         `json:"status" db:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Choice is a single answer option with a scoring weight
type Choice struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// ChoiceList is a JSONB-backed list of answer options
type ChoiceList []Choice

// Value implements driver.Valuer for JSONB storage
func (c ChoiceList) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB storage
func (c *ChoiceList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("unsupported type for ChoiceList: %T", src)
	}
}

// Question represents a single quiz question issued for a phase
type Question struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	AssessmentID uuid.UUID  `json:"assessment_id" db:"assessment_id"`
	Phase        string     `json:"phase" db:"phase"`
	Skill        string     `json:"skill" db:"skill"`
	Position     int        `json:"position" db:"position"`
	Text         string     `json:"text" db:"text"`
	Choices      ChoiceList `json:"choices" db:"choices"`
	Source       string     `json:"source" db:"source"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Answer represents a user's response to a question
type Answer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	AssessmentID uuid.UUID `json:"assessment_id" db:"assessment_id"`
	QuestionID   uuid.UUID `json:"question_id" db:"question_id"`
	ChoiceIndex  int       `json:"choice_index" db:"choice_index"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SkillScore is the inferred strength of one skill after a phase
type SkillScore struct {
	Skill string  `json:"skill"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// CareerMatch is a suggested career with a fit score
type CareerMatch struct {
	Title     string `json:"title"`
	FitScore  int    `json:"fit_score"`
	Rationale string `json:"rationale"`
}

// SkillGap describes a missing or weak skill with learning guidance
type SkillGap struct {
	Skill      string `json:"skill"`
	Priority   string `json:"priority"`
	Suggestion string `json:"suggestion"`
}

// LearningStep is one step of the recommended learning path
type LearningStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

// ReportContent is the body of a career analysis report
type ReportContent struct {
	Summary       string         `json:"summary"`
	Strengths     []string       `json:"strengths"`
	CareerMatches []CareerMatch  `json:"career_matches"`
	SkillGaps     []SkillGap     `json:"skill_gaps"`
	LearningPath  []LearningStep `json:"learning_path"`
}

// Value implements driver.Valuer for JSONB storage
func (r ReportContent) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage
func (r *ReportContent) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		*r = ReportContent{}
		return nil
	default:
		return fmt.Errorf("unsupported type for ReportContent: %T", src)
	}
}

// Report represents a stored career analysis report
type Report struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	AssessmentID uuid.UUID     `json:"assessment_id" db:"assessment_id"`
	Source       string        `json:"source" db:"source"`
	Content      ReportContent `json:"content" db:"content"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// Assessment phases
const (
	PhaseInitial    = "initial"
	PhaseDeepDive   = "deep-dive"
	PhaseValidation = "validation"
	PhaseCompleted  = "completed"
)

// Assessment statuses
const (
	AssessmentStatusActive    = "active"
	AssessmentStatusCompleted = "completed"
	AssessmentStatusAbandoned = "abandoned"
)

// Content sources
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Skill gap priorities
const (
	GapPriorityCritical = "critical"
	GapPriorityHigh     = "high"
	GapPriorityMedium   = "medium"
)

// NextPhase returns the phase that follows the given one.
// The terminal phase maps to itself.
func NextPhase(phase string) string {
	switch phase {
	case PhaseInitial:
		return PhaseDeepDive
	case PhaseDeepDive:
		return PhaseValidation
	case PhaseValidation:
		return PhaseCompleted
	default:
		return PhaseCompleted
	}
}

// ValidPhase reports whether the given phase name is known
func ValidPhase(phase string) bool {
	switch phase {
	case PhaseInitial, PhaseDeepDive, PhaseValidation, PhaseCompleted:
		return true
	}
	return false
}
