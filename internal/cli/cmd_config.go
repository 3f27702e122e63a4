package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zlink-cloudtech/spec-kit/internal/config"
	"github.com/zlink-cloudtech/spec-kit/internal/errors"
)

// newConfigCmd creates the config command tree
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage engine settings",
		Long: `Inspect and modify the settings file (` + config.FileName + `).

Examples:
  vibe config init
  vibe config show
  vibe config get max_parallel
  vibe config set timeout_minutes 45
  vibe config set excluded_tools "shell(curl)" --append
  vibe config validate
  vibe config remove model
  vibe config reset --force`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigRemoveCmd())
	cmd.AddCommand(newConfigResetCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path := configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.ErrConfigExists(path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote default settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "overwrite an existing settings file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		},
	}
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one settings value",
		Long: `Print the resolved value of a settings key. Dotted keys reach
per-agent overrides, e.g. agent_config.claude.model.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			value, err := settings.Get(args[0])
			if err != nil {
				return err
			}

			switch v := value.(type) {
			case string:
				fmt.Println(v)
			default:
				data, err := json.Marshal(v)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a settings value",
		Long: `Set a settings key. Values are parsed to the key's type and
range-checked before the file is rewritten; a rejected value leaves the file
untouched. --append adds to list-valued keys instead of replacing them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appendList, _ := cmd.Flags().GetBool("append")

			settings, err := config.Load(configPath())
			if err != nil {
				return err
			}
			if err := settings.Set(args[0], args[1], appendList); err != nil {
				return err
			}
			if err := settings.Save(configPath()); err != nil {
				return err
			}
			fmt.Printf("Set %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().Bool("append", false, "append to a list key instead of replacing")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath())
			if err != nil {
				return err
			}

			findings := settings.Validate(buildRegistry().Names())
			if len(findings) == 0 {
				fmt.Println("Configuration is valid.")
				return nil
			}

			for _, f := range findings {
				fmt.Printf("  - %s\n", f)
			}
			return errors.ErrConfigInvalid(findings)
		},
	}
}

func newConfigRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove KEY",
		Short: "Remove an override, reverting to the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath())
			if err != nil {
				return err
			}
			if err := settings.Remove(args[0]); err != nil {
				return err
			}
			if err := settings.Save(configPath()); err != nil {
				return err
			}
			fmt.Printf("Removed %s (reverted to default)\n", args[0])
			return nil
		},
	}
}

func newConfigResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Rewrite pristine defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return fmt.Errorf("config reset discards all overrides; pass --force to confirm")
			}

			if err := config.Default().Save(configPath()); err != nil {
				return err
			}
			fmt.Printf("Reset %s to defaults\n", configPath())
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "confirm discarding all overrides")
	return cmd
}
