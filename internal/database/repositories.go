package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// UserRepository handles user data operations
type UserRepository interface {
	Create(ctx context.Context, user *types.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*types.User, error)
	Update(ctx context.Context, user *types.User) error
}

// SessionRepository handles refresh token sessions
type SessionRepository interface {
	Create(ctx context.Context, session *types.UserSession) error
	GetByRefreshToken(ctx context.Context, token string) (*types.UserSession, error)
	Rotate(ctx context.Context, id uuid.UUID, newToken string, expiresAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AssessmentRepository handles assessment data operations
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *types.Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Assessment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Assessment, error)
	Update(ctx context.Context, assessment *types.Assessment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionRepository handles issued question sets
type QuestionRepository interface {
	CreateBatch(ctx context.Context, questions []*types.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Question, error)
	ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Question, error)
	CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error)
}

// AnswerRepository handles submitted answers
type AnswerRepository interface {
	Upsert(ctx context.Context, answer *types.Answer) error
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*types.Answer, error)
	ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Answer, error)
	CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error)
}

// ReportRepository handles career analysis reports
type ReportRepository interface {
	Create(ctx context.Context, report *types.Report) error
	GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*types.Report, error)
}

// Repositories aggregates all repository implementations
type Repositories struct {
	Users       UserRepository
	Sessions    SessionRepository
	Assessments AssessmentRepository
	Questions   QuestionRepository
	Answers     AnswerRepository
	Reports     ReportRepository
}

// NewRepositories creates a new repository aggregate
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Users:       &userRepository{db: db},
		Sessions:    &sessionRepository{db: db},
		Assessments: &assessmentRepository{db: db},
		Questions:   &questionRepository{db: db},
		Answers:     &answerRepository{db: db},
		Reports:     &reportRepository{db: db},
	}
}

// isUniqueViolation reports whether the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// userRepository implements UserRepository
type userRepository struct {
	db *DB
}

func (r *userRepository) Create(ctx context.Context, user *types.User) error {
	query := `
		INSERT INTO users (id, email, name, avatar_url, password_hash, github_id, created_at, updated_at)
		VALUES (:id, :email, :name, :avatar_url, :password_hash, :github_id, :created_at, :updated_at)`

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError("a user with this email already exists")
		}
		return errors.NewInternalError("failed to create user").WithCause(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var user types.User
	query := `SELECT * FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user")
		}
		return nil, errors.NewInternalError("failed to get user").WithCause(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	query := `SELECT * FROM users WHERE email = $1`

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user")
		}
		return nil, errors.NewInternalError("failed to get user by email").WithCause(err)
	}
	return &user, nil
}

func (r *userRepository) GetByGitHubID(ctx context.Context, githubID int64) (*types.User, error) {
	var user types.User
	query := `SELECT * FROM users WHERE github_id = $1`

	if err := r.db.GetContext(ctx, &user, query, githubID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user")
		}
		return nil, errors.NewInternalError("failed to get user by GitHub ID").WithCause(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *types.User) error {
	query := `
		UPDATE users
		SET email = :email, name = :name, avatar_url = :avatar_url,
		    password_hash = :password_hash, github_id = :github_id, updated_at = :updated_at
		WHERE id = :id`

	user.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return errors.NewInternalError("failed to update user").WithCause(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NewNotFoundError("user")
	}
	return nil
}

// sessionRepository implements SessionRepository
type sessionRepository struct {
	db *DB
}

func (r *sessionRepository) Create(ctx context.Context, session *types.UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, refresh_token, expires_at, ip_address, user_agent, created_at, updated_at)
		VALUES (:id, :user_id, :refresh_token, :expires_at, :ip_address, :user_agent, :created_at, :updated_at)`

	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return errors.NewInternalError("failed to create session").WithCause(err)
	}
	return nil
}

func (r *sessionRepository) GetByRefreshToken(ctx context.Context, token string) (*types.UserSession, error) {
	var session types.UserSession
	query := `SELECT * FROM user_sessions WHERE refresh_token = $1 AND expires_at > NOW()`

	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("session")
		}
		return nil, errors.NewInternalError("failed to get session").WithCause(err)
	}
	return &session, nil
}

func (r *sessionRepository) Rotate(ctx context.Context, id uuid.UUID, newToken string, expiresAt time.Time) error {
	query := `
		UPDATE user_sessions
		SET refresh_token = $2, expires_at = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, newToken, expiresAt)
	if err != nil {
		return errors.NewInternalError("failed to rotate session").WithCause(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NewNotFoundError("session")
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM user_sessions WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return errors.NewInternalError("failed to delete session").WithCause(err)
	}
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM user_sessions WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return errors.NewInternalError("failed to delete user sessions").WithCause(err)
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM user_sessions WHERE expires_at <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, errors.NewInternalError("failed to delete expired sessions").WithCause(err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// assessmentRepository implements AssessmentRepository
type assessmentRepository struct {
	db *DB
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *types.Assessment) error {
	query := `
		INSERT INTO assessments (id, user_id, field, skills, focus_skills, phase, status, created_at, updated_at)
		VALUES (:id, :user_id, :field, :skills, :focus_skills, :phase, :status, :created_at, :updated_at)`

	assessment.ID = uuid.New()
	assessment.CreatedAt = time.Now()
	assessment.UpdatedAt = assessment.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return errors.NewInternalError("failed to create assessment").WithCause(err)
	}
	return nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*types.Assessment, error) {
	var assessment types.Assessment
	query := `SELECT * FROM assessments WHERE id = $1`

	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("assessment")
		}
		return nil, errors.NewInternalError("failed to get assessment").WithCause(err)
	}
	return &assessment, nil
}

func (r *assessmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Assessment, error) {
	var assessments []*types.Assessment
	query := `SELECT * FROM assessments WHERE user_id = $1 ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &assessments, query, userID); err != nil {
		return nil, errors.NewInternalError("failed to list assessments").WithCause(err)
	}
	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *types.Assessment) error {
	query := `
		UPDATE assessments
		SET field = :field, skills = :skills, focus_skills = :focus_skills,
		    phase = :phase, status = :status, completed_at = :completed_at, updated_at = :updated_at
		WHERE id = :id`

	assessment.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, assessment)
	if err != nil {
		return errors.NewInternalError("failed to update assessment").WithCause(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NewNotFoundError("assessment")
	}
	return nil
}

func (r *assessmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM assessments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewInternalError("failed to delete assessment").WithCause(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NewNotFoundError("assessment")
	}
	return nil
}

// questionRepository implements QuestionRepository
type questionRepository struct {
	db *DB
}

func (r *questionRepository) CreateBatch(ctx context.Context, questions []*types.Question) error {
	if len(questions) == 0 {
		return nil
	}

	query := `
		INSERT INTO questions (id, assessment_id, phase, skill, position, text, choices, source, created_at)
		VALUES (:id, :assessment_id, :phase, :skill, :position, :text, :choices, :source, :created_at)`

	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		for _, q := range questions {
			if q.ID == uuid.Nil {
				q.ID = uuid.New()
			}
			q.CreatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, q); err != nil {
				return errors.NewInternalError("failed to insert question").WithCause(err)
			}
		}
		return nil
	})
}

func (r *questionRepository) GetByID(ctx context.Context, id uuid.UUID) (*types.Question, error) {
	var question types.Question
	query := `SELECT * FROM questions WHERE id = $1`

	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("question")
		}
		return nil, errors.NewInternalError("failed to get question").WithCause(err)
	}
	return &question, nil
}

func (r *questionRepository) ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Question, error) {
	var questions []*types.Question
	query := `SELECT * FROM questions WHERE assessment_id = $1 AND phase = $2 ORDER BY position ASC`

	if err := r.db.SelectContext(ctx, &questions, query, assessmentID, phase); err != nil {
		return nil, errors.NewInternalError("failed to list questions").WithCause(err)
	}
	return questions, nil
}

func (r *questionRepository) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM questions WHERE assessment_id = $1 AND phase = $2`

	if err := r.db.GetContext(ctx, &count, query, assessmentID, phase); err != nil {
		return 0, errors.NewInternalError("failed to count questions").WithCause(err)
	}
	return count, nil
}

// answerRepository implements AnswerRepository
type answerRepository struct {
	db *DB
}

func (r *answerRepository) Upsert(ctx context.Context, answer *types.Answer) error {
	query := `
		INSERT INTO answers (id, assessment_id, question_id, choice_index, created_at)
		VALUES (:id, :assessment_id, :question_id, :choice_index, :created_at)
		ON CONFLICT (assessment_id, question_id)
		DO UPDATE SET choice_index = EXCLUDED.choice_index`

	if answer.ID == uuid.Nil {
		answer.ID = uuid.New()
	}
	answer.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return errors.NewInternalError("failed to save answer").WithCause(err)
	}
	return nil
}

func (r *answerRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*types.Answer, error) {
	var answers []*types.Answer
	query := `SELECT * FROM answers WHERE assessment_id = $1 ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &answers, query, assessmentID); err != nil {
		return nil, errors.NewInternalError("failed to list answers").WithCause(err)
	}
	return answers, nil
}

func (r *answerRepository) ListByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) ([]*types.Answer, error) {
	var answers []*types.Answer
	query := `
		SELECT a.* FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE a.assessment_id = $1 AND q.phase = $2
		ORDER BY q.position ASC`

	if err := r.db.SelectContext(ctx, &answers, query, assessmentID, phase); err != nil {
		return nil, errors.NewInternalError("failed to list phase answers").WithCause(err)
	}
	return answers, nil
}

func (r *answerRepository) CountByPhase(ctx context.Context, assessmentID uuid.UUID, phase string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE a.assessment_id = $1 AND q.phase = $2`

	if err := r.db.GetContext(ctx, &count, query, assessmentID, phase); err != nil {
		return 0, errors.NewInternalError("failed to count phase answers").WithCause(err)
	}
	return count, nil
}

// reportRepository implements ReportRepository
type reportRepository struct {
	db *DB
}

func (r *reportRepository) Create(ctx context.Context, report *types.Report) error {
	query := `
		INSERT INTO reports (id, assessment_id, source, content, created_at)
		VALUES (:id, :assessment_id, :source, :content, :created_at)`

	report.ID = uuid.New()
	report.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError("a report already exists for this assessment")
		}
		return errors.NewInternalError("failed to create report").WithCause(err)
	}
	return nil
}

func (r *reportRepository) GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*types.Report, error) {
	var report types.Report
	query := `SELECT * FROM reports WHERE assessment_id = $1`

	if err := r.db.GetContext(ctx, &report, query, assessmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("report")
		}
		return nil, errors.NewInternalError("failed to get report").WithCause(err)
	}
	return &report, nil
}
