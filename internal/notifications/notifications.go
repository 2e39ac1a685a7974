package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// Message is a channel-agnostic notification payload
type Message struct {
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Channel delivers a message to one destination type
type Channel interface {
	Send(ctx context.Context, recipient string, message Message) error
	Type() string
}

// Service fans report events out to the configured channels. Delivery is
// best effort: a channel failure is logged and never propagated, so a
// broken SMTP server cannot fail a report request.
type Service struct {
	repos    *database.Repositories
	channels []Channel
	logger   *zap.Logger
}

// NewService creates a notification service with the given channels.
func NewService(repos *database.Repositories, logger *zap.Logger, channels ...Channel) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repos:    repos,
		channels: channels,
		logger:   logger,
	}
}

// ReportReady notifies the user that their career analysis is available.
func (s *Service) ReportReady(ctx context.Context, userID uuid.UUID, report *types.Report) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping report notification, user lookup failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	message := buildReportReadyMessage(user, report)

	for _, channel := range s.channels {
		if err := channel.Send(ctx, user.Email, message); err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("channel", channel.Type()),
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}
		s.logger.Info("notification delivered",
			zap.String("channel", channel.Type()),
			zap.String("user_id", userID.String()),
			zap.String("assessment_id", report.AssessmentID.String()))
	}
}

func buildReportReadyMessage(user *types.User, report *types.Report) Message {
	name := user.Name
	if name == "" {
		name = user.Email
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour career analysis report is ready.\n\n%s\n\nTop match: %s\n\nOpen SkillCompass to read the full report.",
		name,
		report.Content.Summary,
		topMatchTitle(report),
	)

	return Message{
		Subject: "Your career analysis report is ready",
		Body:    body,
		Metadata: map[string]string{
			"event_type":    "report_ready",
			"assessment_id": report.AssessmentID.String(),
		},
	}
}

func topMatchTitle(report *types.Report) string {
	if len(report.Content.CareerMatches) == 0 {
		return "see report"
	}
	return report.Content.CareerMatches[0].Title
}
