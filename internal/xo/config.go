// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Config carries every tunable of the solving core.  The zero value is
// not usable; start from NewConfig.
type Config struct {
	// VariableDecay is the per-conflict multiplicative decay of atom
	// activity, in (0,1].
	VariableDecay float64 `mapstructure:"variable_decay"`

	// ClauseDecay is the per-conflict multiplicative decay of learnt
	// clause activity, in (0,1].
	ClauseDecay float64 `mapstructure:"clause_decay"`

	// ReductionInterval is the number of conflicts between learnt
	// clause reductions.
	ReductionInterval uint `mapstructure:"reduction_interval"`

	// NoReduction disables learnt clause purging.
	NoReduction bool `mapstructure:"no_reduction"`

	// NoRestart disables Luby restarts.
	NoRestart bool `mapstructure:"no_restart"`

	// NoSubsumption disables on-the-fly self-subsumption during
	// conflict analysis.
	NoSubsumption bool `mapstructure:"no_subsumption"`

	// Preprocess eliminates unique-polarity literals at the root
	// level before solving.
	Preprocess bool `mapstructure:"preprocess"`

	// GlueStrength: learnt clauses whose initial lbd is within this
	// bound are never reduced.
	GlueStrength uint `mapstructure:"glue_strength"`

	// Stopping selects the resolution stopping criteria.
	Stopping StoppingCriteria `mapstructure:"stopping_criteria"`

	// Vsids selects the activity bump variant.
	Vsids VsidsVariant `mapstructure:"vsids_variant"`

	// LubyU is the base multiplier of the Luby restart sequence.
	LubyU uint `mapstructure:"luby_u"`

	// RandomChoiceFrequency is the probability of deciding a uniformly
	// random atom instead of the most active one.
	RandomChoiceFrequency float64 `mapstructure:"random_choice_frequency"`

	// PolarityLean is the probability of choosing positive polarity
	// when no phase is remembered.
	PolarityLean float64 `mapstructure:"polarity_lean"`

	// TimeLimit bounds the wall clock of a Solve; 0 means none.
	TimeLimit time.Duration `mapstructure:"time_limit"`

	// Seed is the source of all randomness in the context.
	Seed uint64 `mapstructure:"rng_seed"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		VariableDecay:     0.95,
		ClauseDecay:       0.98,
		ReductionInterval: 500,
		GlueStrength:      3,
		Stopping:          FirstUIP,
		Vsids:             VsidsMiniSAT,
		LubyU:             128}
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	if c.VariableDecay <= 0 || c.VariableDecay > 1 {
		return errors.Errorf("variable_decay %v outside (0,1]", c.VariableDecay)
	}
	if c.ClauseDecay <= 0 || c.ClauseDecay > 1 {
		return errors.Errorf("clause_decay %v outside (0,1]", c.ClauseDecay)
	}
	if c.RandomChoiceFrequency < 0 || c.RandomChoiceFrequency > 1 {
		return errors.Errorf("random_choice_frequency %v outside [0,1]", c.RandomChoiceFrequency)
	}
	if c.PolarityLean < 0 || c.PolarityLean > 1 {
		return errors.Errorf("polarity_lean %v outside [0,1]", c.PolarityLean)
	}
	if c.ReductionInterval == 0 {
		return errors.New("reduction_interval must be positive")
	}
	if c.LubyU == 0 {
		return errors.New("luby_u must be positive")
	}
	if c.Stopping != FirstUIP && c.Stopping != NoStopping {
		return errors.Errorf("unknown stopping criteria %d", int(c.Stopping))
	}
	if c.Vsids != VsidsMiniSAT && c.Vsids != VsidsChaff {
		return errors.Errorf("unknown vsids variant %d", int(c.Vsids))
	}
	return nil
}

// ConfigFromMap overlays the defaults with the options in m.  Enum
// options accept their display names, case-insensitively; durations
// accept Go duration strings.
func ConfigFromMap(m map[string]interface{}) (*Config, error) {
	cfg := NewConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			decodeEnums)})
	if err != nil {
		return nil, errors.Wrap(err, "building config decoder")
	}
	if err := dec.Decode(m); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeEnums(from, to reflect.Type, v interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return v, nil
	}
	s := strings.ToLower(v.(string))
	switch to {
	case reflect.TypeOf(FirstUIP):
		switch s {
		case "firstuip":
			return FirstUIP, nil
		case "none":
			return NoStopping, nil
		default:
			return nil, errors.Errorf("unknown stopping criteria %q", s)
		}
	case reflect.TypeOf(VsidsMiniSAT):
		switch s {
		case "minisat":
			return VsidsMiniSAT, nil
		case "chaff":
			return VsidsChaff, nil
		default:
			return nil, errors.Errorf("unknown vsids variant %q", s)
		}
	}
	return v, nil
}
