// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gitlab.com/accumulatenetwork/keyauth/internal/logging"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// LogLevel defines the default and per-module log level.
type LogLevel struct {
	Default string
	Modules [][2]string
}

// Parse parses a string such as "error;auth=info" into a LogLevel.
func (l LogLevel) Parse(s string) LogLevel {
	for _, s := range strings.Split(s, ";") {
		s := strings.SplitN(s, "=", 2)
		if len(s) == 1 {
			l.Default = s[0]
		} else {
			l.Modules = append(l.Modules, *(*[2]string)(s))
		}
	}
	return l
}

// SetDefault sets the default log level.
func (l LogLevel) SetDefault(level string) LogLevel {
	l.Default = level
	return l
}

// SetModule sets the log level for a module.
func (l LogLevel) SetModule(module, level string) LogLevel {
	l.Modules = append(l.Modules, [2]string{module, level})
	return l
}

// String converts the log level into a string, for example
// "error;auth=debug".
func (l LogLevel) String() string {
	s := new(strings.Builder)
	s.WriteString(l.Default)
	for _, m := range l.Modules {
		fmt.Fprintf(s, ";%s=%s", m[0], m[1])
	}
	return s.String()
}

var DefaultLogLevels = LogLevel{}.
	SetDefault("error").
	// SetModule("auth", "debug").
	SetModule("executor", "info").
	String()

type Config struct {
	Auth    Auth    `toml:"auth" mapstructure:"auth"`
	Logging Logging `toml:"logging" mapstructure:"logging"`
	Metrics Metrics `toml:"metrics" mapstructure:"metrics"`
}

type Auth struct {
	// Workers is the number of signature verification workers. Zero means one
	// per CPU.
	Workers int `toml:"workers" mapstructure:"workers" validate:"gte=0"`

	// IngestWorkers is the number of transactions expanded concurrently
	IngestWorkers int `toml:"ingest-workers" mapstructure:"ingest-workers" validate:"gte=0"`

	MaxKeyDepth int `toml:"max-key-depth" mapstructure:"max-key-depth" validate:"gte=1,lte=64"`

	// SkipUnusedSignatures disables verifying signatures that no required key
	// asks for
	SkipUnusedSignatures bool `toml:"skip-unused-signatures" mapstructure:"skip-unused-signatures"`
}

type Logging struct {
	Level  string `toml:"level" mapstructure:"level" validate:"required"`
	Format string `toml:"format" mapstructure:"format" validate:"oneof=plain text json"`
}

type Metrics struct {
	Enabled       bool   `toml:"enabled" mapstructure:"enabled"`
	ListenAddress string `toml:"listen-address" mapstructure:"listen-address" validate:"required_if=Enabled true"`
}

func Default() *Config {
	c := new(Config)
	c.Auth.MaxKeyDepth = protocol.DefaultMaxKeyDepth
	c.Logging.Level = DefaultLogLevels
	c.Logging.Format = logging.LogFormatPlain
	c.Metrics.ListenAddress = "127.0.0.1:9090"
	return c
}

// Validate checks the configuration's fields and log level.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	level, _, err := logging.ParseLogLevel(c.Logging.Level, nil)
	if err == nil {
		_, err = zerolog.ParseLevel(level)
	}
	if err != nil {
		return fmt.Errorf("validate: log level: %w", err)
	}
	return nil
}

// Load loads a configuration file. Fields the file does not set keep their
// default values.
func Load(file string) (*Config, error) {
	c := Default()
	err := load(file, c)
	if err != nil {
		return nil, err
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func Store(c *Config, file string) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

func load(file string, c interface{}) error {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("toml")
	v.SetEnvPrefix("KEYAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	err := v.ReadInConfig()
	if err != nil {
		return fmt.Errorf("read: %v", err)
	}

	err = v.Unmarshal(c)
	if err != nil {
		return fmt.Errorf("unmarshal: %v", err)
	}

	return nil
}
