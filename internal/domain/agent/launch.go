package agent

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// Models the external API accepts. An empty model lets the API pick.
var Models = []string{
	"claude-3-5-sonnet-20241022",
	"claude-3-5-sonnet-20240620",
	"claude-3-5-haiku-20241022",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4-turbo",
	"gpt-4",
	"gpt-3.5-turbo",
	"o1-preview",
	"o1-mini",
}

// ImageDimension is the pixel size of a prompt image.
type ImageDimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PromptImage is a base64-encoded image attached to the prompt.
type PromptImage struct {
	Data      string         `json:"data"`
	Dimension ImageDimension `json:"dimension"`
}

// Prompt is the task description for the agent.
type Prompt struct {
	Text   string        `json:"text"`
	Images []PromptImage `json:"images,omitempty"`
}

// LaunchTarget configures pull request behavior for a new agent.
type LaunchTarget struct {
	AutoCreatePr          bool   `json:"autoCreatePr,omitempty"`
	OpenAsCursorGithubApp bool   `json:"openAsCursorGithubApp,omitempty"`
	SkipReviewerRequest   bool   `json:"skipReviewerRequest,omitempty"`
	BranchName            string `json:"branchName,omitempty"`
}

// Webhook is an optional callback the external API notifies on status
// change. Pass-through configuration only.
type Webhook struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}

// LaunchRequest is the validated request body for launching an agent.
// The same shape is sent verbatim to the external API in live mode.
type LaunchRequest struct {
	Prompt  Prompt        `json:"prompt"`
	Source  Source        `json:"source"`
	Model   string        `json:"model,omitempty"`
	Target  *LaunchTarget `json:"target,omitempty"`
	Webhook *Webhook      `json:"webhook,omitempty"`
}

const minWebhookSecretLen = 32

// Validate checks the launch request before any backend call is attempted.
// All failures wrap domain.ErrValidation with field-level detail.
func (r *LaunchRequest) Validate() error {
	if strings.TrimSpace(r.Prompt.Text) == "" {
		return fmt.Errorf("%w: prompt.text is required", domain.ErrValidation)
	}
	for i, img := range r.Prompt.Images {
		if img.Data == "" {
			return fmt.Errorf("%w: prompt.images[%d].data is required", domain.ErrValidation, i)
		}
		if img.Dimension.Width <= 0 || img.Dimension.Height <= 0 {
			return fmt.Errorf("%w: prompt.images[%d].dimension must be positive", domain.ErrValidation, i)
		}
	}

	if err := validateRepositoryURL(r.Source.Repository); err != nil {
		return err
	}
	if r.Source.Ref == "" {
		return fmt.Errorf("%w: source.ref is required", domain.ErrValidation)
	}

	if r.Model != "" && !validModel(r.Model) {
		return fmt.Errorf("%w: unknown model %q", domain.ErrValidation, r.Model)
	}

	if r.Webhook != nil {
		if _, err := url.ParseRequestURI(r.Webhook.URL); err != nil {
			return fmt.Errorf("%w: webhook.url is not a valid URL", domain.ErrValidation)
		}
		if r.Webhook.Secret != "" && len(r.Webhook.Secret) < minWebhookSecretLen {
			return fmt.Errorf("%w: webhook.secret must be at least %d characters", domain.ErrValidation, minWebhookSecretLen)
		}
	}

	return nil
}

// validateRepositoryURL accepts only github.com URLs with an owner/repo path.
func validateRepositoryURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: source.repository is not a valid URL", domain.ErrValidation)
	}
	if u.Hostname() != "github.com" {
		return fmt.Errorf("%w: source.repository must be a github.com URL", domain.ErrValidation)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return fmt.Errorf("%w: source.repository must include owner and repository", domain.ErrValidation)
	}
	return nil
}

func validModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
