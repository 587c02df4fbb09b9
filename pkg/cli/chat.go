package cli

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/secmon-lab/mnemosyne/pkg/agent/tool"
	"github.com/secmon-lab/mnemosyne/pkg/agent/tool/core"
	"github.com/secmon-lab/mnemosyne/pkg/cli/config"
	"github.com/secmon-lab/mnemosyne/pkg/service/vectorindex"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/secmon-lab/mnemosyne/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

func cmdChat() *cli.Command {
	var userID string
	var agentID string
	var prompt string
	var repoCfg config.Repository
	var geminiCfg config.Gemini

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Usage:       "User ID owning the memories",
			Required:    true,
			Sources:     cli.EnvVars("MNEMOSYNE_CHAT_USER"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "agent",
			Usage:       "Agent ID for agent-scoped memories",
			Sources:     cli.EnvVars("MNEMOSYNE_CHAT_AGENT"),
			Destination: &agentID,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "Prompt to send to the agent",
			Required:    true,
			Destination: &prompt,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Run a one-shot agent session with memory tools",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}
			logging.Default().Info("Gemini LLM configured", "gemini", geminiCfg.LogAttrs())

			idx := vectorindex.New()
			uc := usecase.New(repo, idx)
			if err := uc.Memory.Rebuild(ctx); err != nil {
				return goerr.Wrap(err, "failed to rebuild vector index")
			}

			sessionID := uuid.Must(uuid.NewV7()).String()
			logger := logging.Default().With("session_id", sessionID, "user_id", userID, "agent_id", agentID)
			ctx = logging.With(ctx, logger)

			var sb strings.Builder
			if err := chatSystemPrompt.Execute(&sb, map[string]string{
				"UserID":  userID,
				"AgentID": agentID,
			}); err != nil {
				return goerr.Wrap(err, "failed to render system prompt")
			}

			tools := core.New(uc, userID, agentID, llmClient)

			agent := gollem.New(llmClient,
				gollem.WithSystemPrompt(sb.String()),
				gollem.WithTools(tools...),
				gollem.WithToolMiddleware(
					func(next gollem.ToolHandler) gollem.ToolHandler {
						return func(ctx context.Context, req *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
							logger.Info("executing tool", "tool", req.Tool.Name)
							return next(ctx, req)
						}
					},
				),
			)

			ctx = tool.WithNotify(ctx, func(ctx context.Context, msg string) {
				fmt.Println("  > " + msg)
			})

			resp, err := agent.Execute(ctx, gollem.Text(prompt))
			if err != nil {
				return goerr.Wrap(err, "failed to execute agent")
			}

			fmt.Println(strings.Join(resp.Texts, "\n"))
			return nil
		},
	}
}
