package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-scoring/internal/common/config"
	"ats-scoring/internal/common/errors"
)

func testClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(config.CamundaConfig{BrokerAddress: "zeebe:26500", Plaintext: true, RequestTimeout: 5000})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 5*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, DefaultRetryConfig, cfg.RetryConfig)

	assert.Equal(t, 10*time.Second, ConfigFromSettings(config.CamundaConfig{}).ConnectionTimeout)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(stderrors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(stderrors.New("rpc error: code = NotFound")))
	assert.False(t, isRetryableZeebeError(stderrors.New("permission denied")))
}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	c := testClient(3)
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("connection reset by peer")
		}
		return "ok", nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	c := testClient(3)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("unauthorized")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrCodeInternal, errors.AsStandardError(err).Code)
}

func TestExecuteWithRetry_ExhaustsRetriesOnTimeout(t *testing.T) {
	c := testClient(2)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("i/o timeout")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	stdErr := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
	assert.Contains(t, stdErr.Details, "after 3 attempts")
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := testClient(5)
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("unavailable")
	}, "topology")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
