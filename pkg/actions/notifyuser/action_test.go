package notifyuser_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/actions/notifyuser"
	"github.com/fluxohq/fluxo/pkg/testutil"
)

func TestNotifyUserCreatesNotification(t *testing.T) {
	notifications := &testutil.FakeNotifications{}

	action, err := notifyuser.NewAction(notifications, map[string]any{
		"userId":  "user-1",
		"title":   "Low stock",
		"message": "Widget is below threshold",
	})
	require.NoError(t, err)

	execCtx, _ := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	require.Len(t, notifications.Notifications, 1)
	notification := notifications.Notifications[0]
	assert.Equal(t, "user-1", notification.UserID)
	assert.Equal(t, "org-1", notification.OrganizationID)
	assert.Equal(t, "Low stock", notification.Title)
	assert.Equal(t, "normal", notification.Priority)
}

func TestNotifyUserRequiresUser(t *testing.T) {
	_, err := notifyuser.NewAction(&testutil.FakeNotifications{}, map[string]any{"title": "x"})
	require.Error(t, err)
}
