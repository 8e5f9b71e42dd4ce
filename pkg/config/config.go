// Package config loads site-wide defaults for the linker driver from a
// .rvldrc file, so options like --wrap or -z execstack-if-needed don't have
// to be repeated on every invocation. This sits alongside cmd/rvld's flag
// parsing rather than replacing it: a boolean option is on if either the
// file or a flag turns it on, list options collect entries from both, and
// a non-empty --default-symver replaces the file's default-version.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Defaults holds the subset of pkg/linker.ContextArgs a .rvldrc file may
// pre-populate. cmd/rvld applies these before applying its flags, which
// combine with them as the package comment describes.
type Defaults struct {
	LibraryPaths []string `mapstructure:"library-paths"`
	WrapSymbols  []string `mapstructure:"wrap"`

	DiscardAll    bool `mapstructure:"discard-all"`
	DiscardLocals bool `mapstructure:"discard-locals"`
	StripAll      bool `mapstructure:"strip-all"`
	StripDebug    bool `mapstructure:"strip-debug"`

	ZExecstackIfNeeded bool `mapstructure:"z-execstack-if-needed"`
	AllowShlibUndef    bool `mapstructure:"allow-shlib-undefined"`
	WarnCommon         bool `mapstructure:"warn-common"`
	ExcludeLibs        bool `mapstructure:"exclude-libs"`

	DefaultVersion string `mapstructure:"default-version"`
}

// Load reads a .rvldrc file (TOML, YAML, or JSON, chosen by configTypeOf
// from its extension; YAML when it has none of those) from path and
// decodes it into a Defaults value. A
// missing file is not an error: it just means no site-wide defaults apply.
func Load(path string) (Defaults, error) {
	var d Defaults

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return d, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	// Dotfiles like ".rvldrc" have no extension viper can infer a format
	// from (filepath.Ext(".rvldrc") is the whole name, not empty), so name
	// the format explicitly unless the caller gave a recognized extension.
	v.SetConfigType(configTypeOf(path))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return d, nil
		}
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := v.Unmarshal(&d); err != nil {
		return d, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return d, nil
}

// configTypeOf picks the viper format a .rvldrc-style path should be parsed
// as: a recognized extension (.toml/.yaml/.yml/.json) wins, otherwise a
// dotfile with no real extension defaults to YAML.
func configTypeOf(path string) string {
	for _, ext := range []string{"toml", "yaml", "yml", "json"} {
		if strings.HasSuffix(path, "."+ext) {
			return ext
		}
	}
	return "yaml"
}
