package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

func TestScopeValidate(t *testing.T) {
	t.Run("global is valid", func(t *testing.T) {
		gt.NoError(t, types.ScopeGlobal.Validate())
	})

	t.Run("agent is valid", func(t *testing.T) {
		gt.NoError(t, types.ScopeAgent.Validate())
	})

	t.Run("empty scope is invalid", func(t *testing.T) {
		gt.Error(t, types.Scope("").Validate())
	})

	t.Run("unknown scope is invalid", func(t *testing.T) {
		gt.Error(t, types.Scope("team").Validate())
	})
}
