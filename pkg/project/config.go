package project

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ConfigName is the name of the optional per-project configuration file.
const ConfigName = "pymake.yaml"

// Config describes the external tools used for a project. Every field is
// optional in pymake.yaml; missing fields keep their defaults.
type Config struct {
	// command used by the format task, in-place and recursive
	Formatter string `yaml:"formatter"`
	// style file passed to the formatter; local style discovery is disabled
	Style string `yaml:"style"`
	// command used by the lint task
	Linter string `yaml:"linter"`
	// rcfile passed to the linter
	RCFile string `yaml:"rcfile"`
	// command used by the test task
	TestRunner string `yaml:"test_runner"`
	// test modules passed to the test runner
	Tests []string `yaml:"tests"`
	// directory names skipped during source discovery
	Exclude []string `yaml:"exclude"`
}

// DefaultConfig returns the tool setup for projects without a pymake.yaml.
func DefaultConfig() *Config {
	return &Config{
		Formatter:  "yapf3",
		Style:      ".style.yapf",
		Linter:     "pylint",
		RCFile:     "pylintrc",
		TestRunner: "nosetests3",
		Tests:      []string{"student_function_unittest.py"},
		// "depricated" is the historical name of the excluded directory,
		// misspelling included
		Exclude: []string{"depricated"},
	}
}

// LoadConfig reads <root>/pymake.yaml and merges it over the defaults.
// A missing file is not an error, it simply means the defaults apply.
func LoadConfig(fs afero.Fs, root string) (*Config, error) {
	cfg := DefaultConfig()

	cfgPath := filepath.Join(root, ConfigName)
	content, err := afero.ReadFile(fs, cfgPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, eris.Wrapf(err, "Could not open file %s", cfgPath)
	}

	var overrides Config
	err = yaml.Unmarshal(content, &overrides)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse %s", cfgPath)
	}

	if overrides.Formatter != "" {
		cfg.Formatter = overrides.Formatter
	}
	if overrides.Style != "" {
		cfg.Style = overrides.Style
	}
	if overrides.Linter != "" {
		cfg.Linter = overrides.Linter
	}
	if overrides.RCFile != "" {
		cfg.RCFile = overrides.RCFile
	}
	if overrides.TestRunner != "" {
		cfg.TestRunner = overrides.TestRunner
	}
	if overrides.Tests != nil {
		cfg.Tests = overrides.Tests
	}
	if overrides.Exclude != nil {
		cfg.Exclude = overrides.Exclude
	}

	return cfg, nil
}
