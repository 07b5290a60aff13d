package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	size    int
	name    string
	applied []string
}

func (c *testConfig) Validate() error {
	if c.size == 0 {
		return errors.New("size must be set")
	}

	return nil
}

func withSize(n int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if n < 0 {
			return errors.New("negative size")
		}
		c.size = n
		c.applied = append(c.applied, "size")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.applied = append(c.applied, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withName("a"), withSize(4), withName("b"))
		require.NoError(t, err)
		require.Equal(t, 4, cfg.size)
		require.Equal(t, "b", cfg.name)
		require.Equal(t, []string{"name", "size", "name"}, cfg.applied)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withSize(-1), withName("never"))
		require.Error(t, err)
		require.Empty(t, cfg.name)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, nil, withSize(1)))
		require.Equal(t, 1, cfg.size)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg))
		require.Empty(t, cfg.applied)
	})
}

func TestApplyAndValidate(t *testing.T) {
	cfg := &testConfig{}
	require.Error(t, ApplyAndValidate(cfg, withName("x")))

	cfg = &testConfig{}
	require.NoError(t, ApplyAndValidate(cfg, withSize(8)))
}
