package core

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
)

// New builds the memory toolset for an agent acting as agentID on behalf of
// userID. The identity is bound at construction so the LLM cannot address
// another user's memories through tool arguments.
func New(uc *usecase.UseCases, userID, agentID string, llmClient gollem.LLMClient) []gollem.Tool {
	return []gollem.Tool{
		&addMemoryTool{uc: uc, userID: userID, agentID: agentID, llmClient: llmClient},
		&searchMemoryTool{uc: uc, userID: userID, agentID: agentID, llmClient: llmClient},
		&deleteMemoryTool{uc: uc, userID: userID},
		&listMemoriesTool{uc: uc, userID: userID},
	}
}
