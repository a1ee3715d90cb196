package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/access-control-plane/models"
	"go.uber.org/zap"
)

func TestCanShowCapability(t *testing.T) {
	eval := NewEvaluator(zap.NewNop())

	t.Run("view without action is hidden", func(t *testing.T) {
		set := models.NewPermissionSet([]string{"client:view"})
		assert.False(t, eval.CanShowCapability(set, models.RoleUser, "client:view", false))
	})

	t.Run("view plus any action is shown", func(t *testing.T) {
		set := models.NewPermissionSet([]string{"client:view", "client:delete"})
		assert.True(t, eval.CanShowCapability(set, models.RoleUser, "client:view", false))
	})

	t.Run("action without view is hidden", func(t *testing.T) {
		set := models.NewPermissionSet([]string{"client:create"})
		assert.False(t, eval.CanShowCapability(set, models.RoleUser, "client:view", false))
	})

	t.Run("view-only category needs only view", func(t *testing.T) {
		set := models.NewPermissionSet([]string{"audit:view"})
		assert.True(t, eval.CanShowCapability(set, models.RoleUser, "audit:view", true))
	})

	t.Run("unmapped category falls back to the primitive check", func(t *testing.T) {
		set := models.NewPermissionSet([]string{"report:view"})
		assert.True(t, eval.CanShowCapability(set, models.RoleUser, "report:view", false))
		assert.False(t, eval.CanShowCapability(set, models.RoleUser, "billing:view", false))
	})

	t.Run("admin and master bypass the rule", func(t *testing.T) {
		empty := models.NewPermissionSet(nil)
		assert.True(t, eval.CanShowCapability(empty, models.RoleAdmin, "client:view", false))
		assert.True(t, eval.CanShowCapability(empty, models.RoleMaster, "client:view", false))
		assert.False(t, eval.CanShowCapability(empty, models.RoleUser, "client:view", false))
	})

	t.Run("noRoleBypass makes roles irrelevant", func(t *testing.T) {
		empty := models.NewPermissionSet(nil)
		assert.False(t, eval.CanShowCapability(empty, models.RoleMaster, "audit:view", true))

		granted := models.NewPermissionSet([]string{"audit:view"})
		assert.True(t, eval.CanShowCapability(granted, models.RoleMaster, "audit:view", true))
	})

	t.Run("nil set holds nothing", func(t *testing.T) {
		assert.False(t, eval.CanShowCapability(nil, models.RoleUser, "client:view", false))
	})
}

func TestCustomRules(t *testing.T) {
	eval := NewEvaluatorWithRules(map[string]CategoryRule{
		"invoice": {View: []string{"invoice:view"}, Actions: []string{"invoice:send"}},
	}, zap.NewNop())

	set := models.NewPermissionSet([]string{"invoice:view", "invoice:send"})
	assert.True(t, eval.CanShowCapability(set, models.RoleUser, "invoice:view", false))

	// Categories from the default table are unmapped here.
	clientSet := models.NewPermissionSet([]string{"client:view"})
	assert.True(t, eval.CanShowCapability(clientSet, models.RoleUser, "client:view", false))
}
