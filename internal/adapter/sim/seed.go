package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/conversation"
)

// seedCount is the size of the demo fleet.
const seedCount = 47

var seedStatuses = []agent.Status{
	agent.StatusRunning,
	agent.StatusFinished,
	agent.StatusError,
	agent.StatusCreating,
	agent.StatusExpired,
}

var seedRepos = []string{
	"acme/web-app",
	"acme/api-service",
	"acme/dashboard",
	"acme/core-lib",
	"acme/backend",
	"acme/mobile-app",
	"acme/auth-service",
	"acme/payments",
	"acme/analytics",
	"acme/docs",
}

var seedBranches = []string{
	"main",
	"develop",
	"staging",
	"feature/auth",
	"feature/payments",
}

var seedTasks = []string{
	"Add README Documentation",
	"Fix Authentication Bug",
	"Implement Dark Mode",
	"Add Unit Tests",
	"Refactor Database Layer",
	"Update Dependencies",
	"Add API Endpoints",
	"Fix Memory Leak",
	"Implement Caching",
	"Add Logging",
	"Setup CI/CD Pipeline",
	"Add Error Handling",
	"Optimize Performance",
	"Add Search Feature",
	"Implement Webhooks",
	"Add Rate Limiting",
	"Setup Monitoring",
	"Add Input Validation",
	"Implement SSO",
	"Add Export Feature",
}

var seedSummaries = []string{
	"Creating comprehensive README with installation instructions...",
	"Fixed JWT token validation and added refresh token support",
	"Error: Could not access repository. Please check permissions.",
	"Setting up initial configuration...",
	"Session expired due to inactivity",
	"Implementing new feature with tests...",
	"Analyzing codebase structure...",
	"Making requested changes to the repository...",
	"Completed all requested changes successfully",
	"Waiting for user confirmation...",
}

// seedAgents builds the deterministic demo fleet, newest first. Creation
// times step back half an hour per agent from now.
func seedAgents(now time.Time) []agent.Agent {
	agents := make([]agent.Agent, 0, seedCount)
	for i := 0; i < seedCount; i++ {
		status := seedStatuses[i%len(seedStatuses)]
		repo := seedRepos[i%len(seedRepos)]
		task := seedTasks[i%len(seedTasks)]
		id := fmt.Sprintf("bc_sim%03d", i+1)

		target := agent.Target{
			URL:          agentConsoleBase + id,
			BranchName:   fmt.Sprintf("cursor/%s-%d", slug(task), 1000+i),
			AutoCreatePr: i%2 == 0,
		}
		if status == agent.StatusFinished {
			target.PrURL = fmt.Sprintf("https://github.com/%s/pull/%d", repo, 40+i)
		}

		agents = append(agents, agent.Agent{
			ID:     id,
			Name:   fmt.Sprintf("%s #%d", task, i+1),
			Status: status,
			Source: agent.Source{
				Repository: "https://github.com/" + repo,
				Ref:        seedBranches[i%len(seedBranches)],
			},
			Target:    target,
			CreatedAt: now.Add(-time.Duration(i*30+5) * time.Minute),
			Summary:   seedSummaries[i%len(seedSummaries)],
		})
	}
	return agents
}

// seedConversations returns the two pre-built demo transcripts.
func seedConversations() map[string]*conversation.Conversation {
	return map[string]*conversation.Conversation{
		"bc_sim001": {
			ID: "bc_sim001",
			Messages: []conversation.Message{
				conversation.UserMessage{
					ID:   "msg_001",
					Text: "Add a comprehensive README.md file with installation instructions, usage examples, and contribution guidelines.",
				},
				conversation.AssistantMessage{
					ID:   "msg_002",
					Text: "I'll create a comprehensive README.md file for your project. Let me first analyze the project structure to understand what documentation would be most helpful.",
				},
				conversation.ToolCall{
					ID:       "msg_003",
					ToolName: "list_directory",
					Input:    map[string]any{"path": "/"},
				},
				conversation.ToolResult{
					ID:     "msg_004",
					Result: "Found: package.json, src/, tests/, .github/",
				},
				conversation.AssistantMessage{
					ID:   "msg_005",
					Text: "I can see this is a Node.js project. I'll create a README with sections for installation, development setup, testing, and contribution guidelines.",
				},
				conversation.ToolCall{
					ID:       "msg_006",
					ToolName: "create_file",
					Input:    map[string]any{"path": "README.md"},
				},
			},
		},
		"bc_sim002": {
			ID: "bc_sim002",
			Messages: []conversation.Message{
				conversation.UserMessage{
					ID:   "msg_001",
					Text: "Fix the authentication bug where JWT tokens are not being validated correctly",
				},
				conversation.AssistantMessage{
					ID:   "msg_002",
					Text: "I'll investigate the JWT token validation issue. Let me examine the authentication middleware first.",
				},
				conversation.ToolCall{
					ID:       "msg_003",
					ToolName: "read_file",
					Input:    map[string]any{"path": "src/middleware/auth.ts"},
				},
				conversation.AssistantMessage{
					ID:   "msg_004",
					Text: "I found the issue. The token verification is not properly handling the token expiration. I've fixed the validation logic and added refresh token support. The changes have been committed to the branch.",
				},
			},
		},
	}
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
