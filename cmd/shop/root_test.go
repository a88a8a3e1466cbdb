package shop

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopCommandsInitLoggers(t *testing.T) {
	var out bytes.Buffer
	ShopCommands.SetOut(&out)
	ShopCommands.SetErr(&out)
	ShopCommands.SilenceUsage = true
	t.Cleanup(func() { ShopCommands.SetArgs(nil) })

	// the level is validated by the logger setup before any connection is made
	ShopCommands.SetArgs([]string{"info", "--log-level", "loud"})
	err := ShopCommands.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level: loud")

	// a valid level passes the logger setup, the client setup fails afterwards
	ShopCommands.SetArgs([]string{"info", "--log-level", "debug", "--transport-endpoints", "127.0.0.1:1"})
	err = ShopCommands.Execute()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "log level")
}
