package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"

	GlobDrop    = "drop"
	GlobLiteral = "literal"
)

// ErrNotConfigured is returned when opening a file the configuration leaves
// empty.
var ErrNotConfigured = errors.New("not configured")

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	Prompt string `json:"prompt" validate:"required"`
	Color  string `json:"color" validate:"oneof=always auto never"`

	// MaxJobs bounds the job table, ids run from 0 to MaxJobs.
	MaxJobs     int    `json:"max_jobs" validate:"gte=1,lte=1024"`
	GlobNoMatch string `json:"glob_no_match" validate:"oneof=drop literal"`

	HistoryFile string `json:"history_file"`
	EventLog    string `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Dir is the directory the configuration was loaded from, empty for the
// built in default.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// KeepUnmatchedGlobs reports whether a glob matching nothing stays a word.
func (c *Configuration) KeepUnmatchedGlobs() bool {
	return c.GlobNoMatch == GlobLiteral
}

// UseColor decides whether to color output going to a terminal or not.
func (c *Configuration) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}

// HistoryPath returns the path of the line editor history on the host or
// the empty string if history is disabled.
func (c *Configuration) HistoryPath() string {
	switch {
	case c.HistoryFile == "":
		return ""
	case filepath.IsAbs(c.HistoryFile):
		return c.HistoryFile
	case c.configurationDir == "":
		return ""
	default:
		return filepath.Join(c.configurationDir, c.HistoryFile)
	}
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// OpenEventLog opens the job event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if c.EventLog == "" || c.fs() == nil {
		return nil, ErrNotConfigured
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the job event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if c.EventLog == "" || c.fs() == nil {
		return nil, ErrNotConfigured
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// Default returns the built in configuration. It is not backed by a
// directory so history and the event log are unavailable.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
