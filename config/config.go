// Package config loads the on-disk/ENV configuration for the relinfer CLI
// with spf13/viper, decoding into relate.Options via mitchellh/mapstructure.
package config

import (
	"regexp"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/turnkey-commerce/relinfer/inflect"
	"github.com/turnkey-commerce/relinfer/moniker"
	"github.com/turnkey-commerce/relinfer/relate"
)

// File is the raw, serializable shape of a relinfer config file. Only the
// map/string-keyed override forms are representable on disk; Func-based
// overrides remain a Go-only, programmatic extension of Options.
type File struct {
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`

	Constraint string `mapstructure:"constraint"`
	Exclude    string `mapstructure:"exclude"`

	MonikerMap map[string]string `mapstructure:"moniker_map"`

	InflectPlural   map[string]string `mapstructure:"inflect_plural"`
	InflectSingular map[string]string `mapstructure:"inflect_singular"`

	RelNameMap      map[string]map[string]string `mapstructure:"rel_name_map"`
	RelCollisionMap []CollisionRuleFile           `mapstructure:"rel_collision_map"`

	RelationshipAttrs RelationshipAttrsFile `mapstructure:"relationship_attrs"`
}

// CollisionRuleFile is the on-disk shape of one relate.CollisionRule.
type CollisionRuleFile struct {
	Pattern  string `mapstructure:"pattern"`
	Template string `mapstructure:"template"`
}

// RelationshipAttrsFile is the on-disk shape of relate.RelationshipAttrs.
type RelationshipAttrsFile struct {
	All       map[string]interface{} `mapstructure:"all"`
	BelongsTo map[string]interface{} `mapstructure:"belongs_to"`
	HasMany   map[string]interface{} `mapstructure:"has_many"`
	MightHave map[string]interface{} `mapstructure:"might_have"`
}

// Load reads path (any format viper supports: yaml, json, toml) and
// environment variables prefixed RELINFER_, and returns both the raw File
// (for DSN/Schema, which the caller wires separately into catalogsql) and
// the decoded relate.Options.
func Load(path string) (*File, relate.Options, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("relinfer")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, relate.Options{}, errors.Wrap(err, "config: read")
	}

	var f File
	if err := v.Unmarshal(&f, func(c *mapstructure.DecoderConfig) { c.ErrorUnused = false }); err != nil {
		return nil, relate.Options{}, errors.Wrap(err, "config: decode")
	}

	opts, err := f.toOptions()
	if err != nil {
		return nil, relate.Options{}, err
	}

	return &f, opts, nil
}

func (f *File) toOptions() (relate.Options, error) {
	opts := relate.Options{
		DBSchema:        f.Schema,
		MonikerMap:      moniker.Options{Map: f.MonikerMap},
		InflectPlural:   inflect.Overrides{Map: f.InflectPlural},
		InflectSingular: inflect.Overrides{Map: f.InflectSingular},
		RelNameMap:      relate.RelNameMap{Nested: f.RelNameMap},
	}

	if f.Constraint != "" {
		re, err := regexp.Compile(f.Constraint)
		if err != nil {
			return opts, errors.Wrap(err, "config: constraint regexp")
		}
		opts.Constraint = re
	}
	if f.Exclude != "" {
		re, err := regexp.Compile(f.Exclude)
		if err != nil {
			return opts, errors.Wrap(err, "config: exclude regexp")
		}
		opts.Exclude = re
	}

	for _, rule := range f.RelCollisionMap {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return opts, errors.Wrapf(err, "config: rel_collision_map pattern %q", rule.Pattern)
		}
		opts.RelCollisionMap = append(opts.RelCollisionMap, relate.CollisionRule{Pattern: re, Template: rule.Template})
	}

	opts.RelationshipAttrs = relate.RelationshipAttrs{
		All:       relate.AttrBucket(f.RelationshipAttrs.All),
		BelongsTo: relate.AttrBucket(f.RelationshipAttrs.BelongsTo),
		HasMany:   relate.AttrBucket(f.RelationshipAttrs.HasMany),
		MightHave: relate.AttrBucket(f.RelationshipAttrs.MightHave),
	}

	return opts, nil
}
