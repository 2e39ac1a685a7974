package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

const githubAPIBase = "https://api.github.com"

// GitHubProvider handles GitHub OAuth sign-in.
type GitHubProvider struct {
	oauth   *oauth2.Config
	apiBase string
}

// NewGitHubProvider creates a GitHub OAuth provider from auth config.
func NewGitHubProvider(cfg *config.Config) *GitHubProvider {
	return &GitHubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.Auth.GitHubClientID,
			ClientSecret: cfg.Auth.GitHubSecret,
			RedirectURL:  cfg.Auth.OAuthRedirectURI,
			Scopes:       []string{"user:email"},
			Endpoint:     githuboauth.Endpoint,
		},
		apiBase: githubAPIBase,
	}
}

// Configured reports whether GitHub credentials are present.
func (p *GitHubProvider) Configured() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

// AuthURL returns the GitHub authorization URL for the given state.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// githubUser is the subset of the GitHub user API response we need.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// FetchUser exchanges the authorization code and loads the GitHub profile.
func (p *GitHubProvider) FetchUser(ctx context.Context, code string) (*githubUser, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.NewAuthenticationError("failed to exchange GitHub authorization code").WithCause(err)
	}

	client := p.oauth.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(client, "/user", &user); err != nil {
		return nil, err
	}

	// The public profile email may be hidden; fall back to the primary
	// verified address from the emails endpoint.
	if user.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := p.getJSON(client, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					user.Email = e.Email
					break
				}
			}
		}
	}

	if user.Email == "" {
		return nil, errors.NewAuthenticationError("GitHub account has no verified email address")
	}
	if user.Name == "" {
		user.Name = user.Login
	}

	return &user, nil
}

func (p *GitHubProvider) getJSON(client *http.Client, path string, dest interface{}) error {
	resp, err := client.Get(p.apiBase + path)
	if err != nil {
		return errors.NewExternalError("github", "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewExternalError("github", fmt.Sprintf("API returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewExternalError("github", "failed to read response").WithCause(err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.NewExternalError("github", "failed to parse response").WithCause(err)
	}
	return nil
}

// GitHubAuthURL returns the authorization URL, or an error when OAuth is
// not configured.
func (s *Service) GitHubAuthURL(state string) (string, error) {
	if !s.github.Configured() {
		return "", errors.NewValidationError("GitHub sign-in is not configured")
	}
	return s.github.AuthURL(state), nil
}

// LoginWithGitHub completes the OAuth flow: it links or creates the local
// user and issues tokens.
func (s *Service) LoginWithGitHub(ctx context.Context, code, ipAddress, userAgent string) (*types.User, *TokenPair, error) {
	if !s.github.Configured() {
		return nil, nil, errors.NewValidationError("GitHub sign-in is not configured")
	}

	ghUser, err := s.github.FetchUser(ctx, code)
	if err != nil {
		s.recordAttempt("github", "failure")
		return nil, nil, err
	}

	user, err := s.findOrCreateGitHubUser(ctx, ghUser)
	if err != nil {
		s.recordAttempt("github", "failure")
		return nil, nil, err
	}

	tokens, err := s.GenerateTokenPair(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	s.recordAttempt("github", "success")
	s.logger.LogAuthEvent(ctx, "github_login", user.ID.String(), "github", true, nil)

	return user, tokens, nil
}

// findOrCreateGitHubUser resolves the local account for a GitHub profile:
// match by GitHub ID first, then link by email, then create.
func (s *Service) findOrCreateGitHubUser(ctx context.Context, ghUser *githubUser) (*types.User, error) {
	user, err := s.repos.Users.GetByGitHubID(ctx, ghUser.ID)
	if err == nil {
		return user, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	user, err = s.repos.Users.GetByEmail(ctx, ghUser.Email)
	if err == nil {
		user.GitHubID = &ghUser.ID
		if user.AvatarURL == "" {
			user.AvatarURL = ghUser.AvatarURL
		}
		if updateErr := s.repos.Users.Update(ctx, user); updateErr != nil {
			return nil, updateErr
		}
		return user, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	user = &types.User{
		Email:     ghUser.Email,
		Name:      ghUser.Name,
		AvatarURL: ghUser.AvatarURL,
		GitHubID:  &ghUser.ID,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
