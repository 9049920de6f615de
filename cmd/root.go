// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pilosa/ecomgen"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Version of this software - filled in by ldflags at build time.
	Version string
	// BuildTime of this software - filled in by ldflags at build time.
	BuildTime string
)

// EnvPrefix prefixes the environment variables read for every flag.
const EnvPrefix = "ECOMGEN"

func setupVersionBuild() {
	if Version == "" {
		Version = "v0.0.0"
	}
	if BuildTime == "" {
		BuildTime = "not recorded"
	}
}

var subcommandFns = map[string]func(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command{}

// NewRootCommand reads the map of subcommandFns and creates a top level cobra
// command with each of them as subcommands.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	setupVersionBuild()
	rc := &cobra.Command{
		Use:   "ecomgen",
		Short: "ecomgen - synthetic e-commerce data for polyglot analytics",
		Long: `Generates a reproducible e-commerce dataset (customers, products,
orders and order lines) and loads it into HBase, MongoDB, an Avro table
readable by Spark, Kafka and Pilosa.

Every flag can also be set with an ECOMGEN_ environment variable or in the
file given with --config.

Version: ` + Version + `
Build Time: ` + BuildTime + "\n",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			return setAllConfig(v, cmd.Flags(), EnvPrefix)
		},
	}
	// No shorthand: commandeer gives -c to flags such as customer-count.
	rc.PersistentFlags().String("config", "", "Configuration file to read from (TOML, YAML or JSON).")
	for _, subcomFn := range subcommandFns {
		rc.AddCommand(subcomFn(stdin, stdout, stderr))
	}
	rc.SetOutput(stderr)
	return rc
}

// setAllConfig sets every flag in flags which wasn't given on the command
// line. A value comes from an environment variable named by envPrefix and the
// flag name (dashes and dots become underscores), then from the file named by
// --config, where "hbase.quorum" is the quorum key of the hbase table, and
// otherwise keeps the flag's default.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, envPrefix string) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v); err != nil {
		return err
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		// Setting a changed slice flag would append to the command line value.
		if err != nil || f.Changed {
			return
		}
		value := configValue(v, f)
		if serr := f.Value.Set(value); serr != nil {
			err = &ecomgen.ConfigError{Param: f.Name, Reason: fmt.Sprintf("invalid value '%s': %v", value, serr)}
		}
	})
	return err
}

// readConfigFile reads the file named by the config flag, if any. The format
// follows the file's extension and defaults to TOML.
func readConfigFile(v *viper.Viper) error {
	name := v.GetString("config")
	if name == "" {
		return nil
	}
	typ := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch typ {
	case "":
		typ = "toml"
	case "toml", "yaml", "yml", "json":
	default:
		return &ecomgen.ConfigError{Param: "config", Reason: fmt.Sprintf("unsupported file type '%s'", typ)}
	}
	v.SetConfigFile(name)
	v.SetConfigType(typ)
	if err := v.ReadInConfig(); err != nil {
		return &ecomgen.ConfigError{Param: "config", Reason: fmt.Sprintf("reading '%s': %v", name, err)}
	}
	return nil
}

// configValue returns the value of f in flag syntax. Lists read from a file
// are slices, which viper's GetString renders as "".
func configValue(v *viper.Viper, f *pflag.Flag) string {
	if f.Value.Type() == "stringSlice" {
		return strings.Join(v.GetStringSlice(f.Name), ",")
	}
	return v.GetString(f.Name)
}
