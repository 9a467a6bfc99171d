package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
)

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+1 (555) 010-0199")
	require.NoError(t, err)
	assert.Equal(t, "+15550100199", got)

	_, err = NormalizePhone("5550100")
	assert.ErrorIs(t, err, ErrInvalidPhone)
	_, err = NormalizePhone("+0123456789")
	assert.ErrorIs(t, err, ErrInvalidPhone)
	_, err = NormalizePhone("")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Disabled{}, New(config.TwilioConfig{}))
	assert.IsType(t, &TwilioSender{}, New(config.TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+15550100"}))
}

func TestDisabled(t *testing.T) {
	assert.ErrorIs(t, Disabled{}.Send(context.Background(), "+15550100199", "hi"), ErrNotConfigured)
}

func TestTwilioSender_RejectsBadNumberLocally(t *testing.T) {
	s := NewTwilioSender(config.TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+15550100"})
	assert.ErrorIs(t, s.Send(context.Background(), "call me", "hi"), ErrInvalidPhone)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "+15550100199", "hi"), context.Canceled)
}

func TestResetCodeMessage(t *testing.T) {
	assert.Contains(t, ResetCodeMessage("123456"), "123456")
}
