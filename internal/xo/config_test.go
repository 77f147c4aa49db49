// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint(500), cfg.ReductionInterval)
	assert.Equal(t, uint(3), cfg.GlueStrength)
	assert.Equal(t, uint(128), cfg.LubyU)
	assert.Equal(t, FirstUIP, cfg.Stopping)
	assert.Equal(t, VsidsMiniSAT, cfg.Vsids)
	assert.False(t, cfg.NoRestart)
	assert.Zero(t, cfg.TimeLimit)
}

func TestConfigFromMap(t *testing.T) {
	cfg, err := ConfigFromMap(map[string]interface{}{
		"variable_decay":          0.9,
		"reduction_interval":      100,
		"no_restart":              true,
		"stopping_criteria":       "none",
		"vsids_variant":           "chaff",
		"time_limit":              "250ms",
		"rng_seed":                7,
		"polarity_lean":           0.25,
		"random_choice_frequency": 0.01,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.VariableDecay)
	assert.Equal(t, uint(100), cfg.ReductionInterval)
	assert.True(t, cfg.NoRestart)
	assert.Equal(t, NoStopping, cfg.Stopping)
	assert.Equal(t, VsidsChaff, cfg.Vsids)
	assert.Equal(t, 250*time.Millisecond, cfg.TimeLimit)
	assert.Equal(t, uint64(7), cfg.Seed)
	// untouched options keep their defaults
	assert.Equal(t, 0.98, cfg.ClauseDecay)
}

func TestConfigFromMapRejects(t *testing.T) {
	cases := []map[string]interface{}{
		{"variable_decay": 1.5},
		{"variable_decay": 0.0},
		{"polarity_lean": -0.1},
		{"reduction_interval": 0},
		{"luby_u": 0},
		{"stopping_criteria": "secondUIP"},
		{"vsids_variant": "berkmin"},
		{"no_such_option": true},
	}
	for _, m := range cases {
		_, err := ConfigFromMap(m)
		assert.Error(t, err, "map %v", m)
	}
}
