package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/ruleforge/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// usageArgs turns argument validation failures into exit code 2.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

type options struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCommand builds the command tree. Command output goes to out and
// logs go to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	o := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "ruleforge",
		Short: "Resolve declarative rule targets into capability providers",
		Long: `ruleforge loads rule manifests and target files written in HCL, validates
every target against its rule's attribute schema and resolves it, together
with its dependencies and toolchains, into a set of typed providers.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.readConfig()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "config file (default is ./ruleforge.yaml)")
	flags.String("modules-path", "modules", "Path to extra rule manifests.")
	flags.String("targets", "targets", "Path to a target file or a directory of target files.")
	flags.String("platform-file", "", "YAML execution platform descriptor. Defaults to the host.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.Int("parallelism", 0, "Dependencies of one instance resolved at once. 0 is unlimited.")
	o.bindFlags(flags)

	root.AddCommand(
		newResolveCommand(o),
		newProvidersCommand(o),
		newRulesCommand(o),
		newTargetsCommand(o),
		newPlatformCommand(o),
	)
	return root
}

func (o *options) bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			_ = o.v.BindPFlag(f.Name, f)
		}
	})
	o.v.SetEnvPrefix("RULEFORGE")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()
}

// readConfig reads the config file. Only an explicit --config must exist.
func (o *options) readConfig() error {
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		o.v.SetConfigName("ruleforge")
		o.v.SetConfigType("yaml")
		o.v.AddConfigPath(".")
	}

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return usageError(fmt.Errorf("failed to read config: %w", err))
	}
	return nil
}

func (o *options) config() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ModulesPath:  o.v.GetString("modules-path"),
		TargetsPath:  o.v.GetString("targets"),
		PlatformFile: o.v.GetString("platform-file"),
		LogLevel:     strings.ToLower(o.v.GetString("log-level")),
		LogFormat:    strings.ToLower(o.v.GetString("log-format")),
		Parallelism:  o.v.GetInt("parallelism"),
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

func (o *options) newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.ErrOrStderr(), cfg)
}
