// Package config loads the TOML configuration file that describes a
// tstore DataSource/Session (spec.md §3.1, §6.3, §6.4): which storage
// backend to dial, the DbName triple naming its database, the default
// dataset a Session resolves against, an optional read cutoff, and the log
// verbosity to run at. It is adapted directly from the teacher's
// internal/parser/toml/parser.go decode-into-typed-struct pattern —
// BurntSushi/toml decodes into an unexported "wire" struct, and a
// converter validates it into the package's real, already-parsed Config.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"tempstore/internal/core"
	"tempstore/internal/store"
)

// tomlFile is the top-level TOML document.
type tomlFile struct {
	DataSource tomlDataSource `toml:"datasource"`
	Log        tomlLog        `toml:"log"`
}

// tomlDataSource maps [datasource].
type tomlDataSource struct {
	Backend      string `toml:"backend"`
	URI          string `toml:"uri"`
	InstanceType string `toml:"instance_type"`
	InstanceName string `toml:"instance_name"`
	EnvName      string `toml:"env_name"`
	Dataset      string `toml:"dataset"` // empty means the root dataset
	Cutoff       string `toml:"cutoff"`
	ReadOnly     bool   `toml:"read_only"`
}

// tomlLog maps [log].
type tomlLog struct {
	Verbosity string `toml:"verbosity"`
}

// Config is the validated result of loading a tstore configuration file.
type Config struct {
	Backend     store.Backend
	URI         string
	DbName      core.DbName
	DatasetName string
	Cutoff      *core.TemporalId
	ReadOnly    bool
	Verbosity   core.Verbosity
}

// Parser reads tstore TOML configuration files.
type Parser struct{}

// NewParser creates a new TOML configuration parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at path and parses it as a tstore configuration.
func (p *Parser) ParseFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from r and returns the corresponding Config.
func (p *Parser) Parse(r io.Reader) (*Config, error) {
	var tf tomlFile
	if _, err := toml.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}

	return newConverter(&tf).convert()
}

type converter struct {
	tf *tomlFile
}

func newConverter(tf *tomlFile) *converter {
	return &converter{tf: tf}
}

func (c *converter) convert() (*Config, error) {
	backend, err := c.backend()
	if err != nil {
		return nil, err
	}

	dbName := core.DbName{
		InstanceType: core.InstanceType(c.tf.DataSource.InstanceType),
		InstanceName: c.tf.DataSource.InstanceName,
		EnvName:      c.tf.DataSource.EnvName,
	}
	if err := core.ValidateDbName(dbName); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cutoff, err := c.cutoff()
	if err != nil {
		return nil, err
	}

	verbosity, err := c.verbosity()
	if err != nil {
		return nil, err
	}

	return &Config{
		Backend:     backend,
		URI:         c.tf.DataSource.URI,
		DbName:      dbName,
		DatasetName: c.tf.DataSource.Dataset,
		Cutoff:      cutoff,
		ReadOnly:    c.tf.DataSource.ReadOnly,
		Verbosity:   verbosity,
	}, nil
}

func (c *converter) backend() (store.Backend, error) {
	switch store.Backend(c.tf.DataSource.Backend) {
	case store.BackendMongo:
		if c.tf.DataSource.URI == "" {
			return "", core.NewError(core.KindValidation, "config: datasource.uri is required for the mongo backend")
		}
		return store.BackendMongo, nil
	case store.BackendMem:
		return store.BackendMem, nil
	case "":
		return "", core.NewError(core.KindValidation, "config: datasource.backend must be %q or %q", store.BackendMongo, store.BackendMem)
	default:
		return "", core.NewError(core.KindValidation, "config: unrecognized datasource.backend %q", c.tf.DataSource.Backend)
	}
}

func (c *converter) cutoff() (*core.TemporalId, error) {
	if c.tf.DataSource.Cutoff == "" {
		return nil, nil
	}
	id, err := core.ParseTemporalId(c.tf.DataSource.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("config: datasource.cutoff: %w", err)
	}
	return &id, nil
}

var verbosityNames = map[string]core.Verbosity{
	"":         core.VerbosityWarning,
	"empty":    core.VerbosityEmpty,
	"error":    core.VerbosityError,
	"warning":  core.VerbosityWarning,
	"status":   core.VerbosityStatus,
	"progress": core.VerbosityProgress,
	"verify":   core.VerbosityVerify,
}

func (c *converter) verbosity() (core.Verbosity, error) {
	v, ok := verbosityNames[c.tf.Log.Verbosity]
	if !ok {
		return 0, core.NewError(core.KindValidation, "config: unrecognized log.verbosity %q", c.tf.Log.Verbosity)
	}
	return v, nil
}
