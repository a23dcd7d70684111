package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pvz-iot/pvz/internal/config"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long: `Print the configuration pvz would use here: the config file merged with
.env and PVZ_* environment variables. The API token is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(nil)
		if err != nil {
			return err
		}
		return showConfig(os.Stdout, cfg, path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key in the config file",
	Long: `Set one dotted key in the config file, keeping its comments and layout.

Keys: ` + strings.Join(config.Keys, ", ") + `

Examples:
  pvz config set tenant acme
  pvz config set poll.devices_interval 5s`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(cfgFile)
		if err != nil {
			return err
		}
		if path == "" {
			return errors.New(errors.ErrConfig,
				"No config file found",
				"Run 'pvz init' first, or pass --config")
		}
		return setConfig(os.Stdout, path, args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func showConfig(out io.Writer, cfg *config.Config, path string) error {
	masked := *cfg
	if masked.API.Token != "" {
		masked.API.Token = "********"
	}
	data, err := config.Render(&masked)
	if err != nil {
		return err
	}

	source := "defaults and environment (no config file)"
	if path != "" {
		source = path
	}
	fmt.Fprintln(out, ui.MutedStyle().Render("# "+source))
	_, err = out.Write(data)
	return err
}

// setConfig writes key and re-validates the file, restoring it if the new
// value makes it invalid.
func setConfig(out io.Writer, path, key, value string) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't read "+path,
			"Check the file exists and is readable")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "See 'pvz config set --help' for the known keys")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		if restoreErr := os.WriteFile(path, original, 0600); restoreErr != nil {
			return restoreErr
		}
		return err
	}

	fmt.Fprintln(out, ui.SuccessStyle().Render(fmt.Sprintf("%s Set %s = %s in %s", ui.SymbolSuccess, key, value, filepath.Base(path))))
	return nil
}
