package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fornada/internal/core/types"
)

func TestConfigValidate(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, DefaultConfig().Validate(ctx))

	t.Run("negative margin", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MarginDefault = types.MustMoney("-0.1")
		require.Error(t, cfg.Validate(ctx))
	})

	t.Run("zero margin is allowed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MarginDefault = types.ZeroMoney()
		require.NoError(t, cfg.Validate(ctx))
	})

	t.Run("empty pipeline", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Stages = nil
		require.Error(t, cfg.Validate(ctx))
	})

	t.Run("consume stage outside pipeline", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ConsumeStage = "baking"
		require.Error(t, cfg.Validate(ctx))
	})
}

func TestStageIndex(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 0, cfg.StageIndex("new"))
	require.Equal(t, 1, cfg.StageIndex("in_production"))
	require.Equal(t, -1, cfg.StageIndex("shipped"))
}

func TestDefaultConfigIsolation(t *testing.T) {
	// Each call must hand out its own stage slice; mutating one
	// configuration must not leak into the defaults.
	a := DefaultConfig()
	a.Stages[0] = "draft"

	b := DefaultConfig()
	require.Equal(t, "new", b.Stages[0])
}
