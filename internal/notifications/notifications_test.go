package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

type stubUsers struct {
	user *types.User
}

func (s *stubUsers) Create(context.Context, *types.User) error { return nil }
func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*types.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, errors.NewNotFoundError("user")
	}
	return s.user, nil
}
func (s *stubUsers) GetByEmail(context.Context, string) (*types.User, error) {
	return nil, errors.NewNotFoundError("user")
}
func (s *stubUsers) GetByGitHubID(context.Context, int64) (*types.User, error) {
	return nil, errors.NewNotFoundError("user")
}
func (s *stubUsers) Update(context.Context, *types.User) error { return nil }

type recordingChannel struct {
	recipients []string
	messages   []Message
	fail       bool
}

func (c *recordingChannel) Type() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, recipient string, message Message) error {
	if c.fail {
		return fmt.Errorf("delivery failed")
	}
	c.recipients = append(c.recipients, recipient)
	c.messages = append(c.messages, message)
	return nil
}

func testReport() *types.Report {
	return &types.Report{
		ID:           uuid.New(),
		AssessmentID: uuid.New(),
		Source:       types.SourceFallback,
		Content: types.ReportContent{
			Summary: "A concise summary of strengths.",
			CareerMatches: []types.CareerMatch{
				{Title: "Backend Engineer", FitScore: 88},
			},
		},
	}
}

func TestReportReady_DeliversToChannels(t *testing.T) {
	user := &types.User{ID: uuid.New(), Email: "dana@example.com", Name: "Dana"}
	repos := &database.Repositories{Users: &stubUsers{user: user}}
	channel := &recordingChannel{}

	svc := NewService(repos, nil, channel)
	svc.ReportReady(context.Background(), user.ID, testReport())

	require.Len(t, channel.messages, 1)
	assert.Equal(t, []string{"dana@example.com"}, channel.recipients)
	assert.Contains(t, channel.messages[0].Body, "Dana")
	assert.Contains(t, channel.messages[0].Body, "Backend Engineer")
	assert.Equal(t, "report_ready", channel.messages[0].Metadata["event_type"])
}

func TestReportReady_ChannelFailureDoesNotPanic(t *testing.T) {
	user := &types.User{ID: uuid.New(), Email: "dana@example.com"}
	repos := &database.Repositories{Users: &stubUsers{user: user}}
	failing := &recordingChannel{fail: true}
	working := &recordingChannel{}

	svc := NewService(repos, nil, failing, working)
	svc.ReportReady(context.Background(), user.ID, testReport())

	// The failing channel does not stop the next one.
	assert.Len(t, working.messages, 1)
}

func TestReportReady_UnknownUser(t *testing.T) {
	repos := &database.Repositories{Users: &stubUsers{}}
	channel := &recordingChannel{}

	svc := NewService(repos, nil, channel)
	svc.ReportReady(context.Background(), uuid.New(), testReport())

	assert.Empty(t, channel.messages)
}

func TestEmailChannel_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	channel := NewEmailChannel(config.EmailConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		From:     "noreply@skillcompass.app",
	}, nil)
	channel.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := channel.Send(context.Background(), "dana@example.com", Message{
		Subject: "Your career analysis report is ready",
		Body:    "Hello.",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@skillcompass.app", gotFrom)
	assert.Equal(t, []string{"dana@example.com"}, gotTo)
	assert.True(t, strings.Contains(string(gotMsg), "Subject: Your career analysis report is ready"))
	assert.True(t, strings.Contains(string(gotMsg), "Hello."))
}

func TestEmailChannel_NotConfigured(t *testing.T) {
	channel := NewEmailChannel(config.EmailConfig{}, nil)

	err := channel.Send(context.Background(), "dana@example.com", Message{})
	assert.Error(t, err)
}
