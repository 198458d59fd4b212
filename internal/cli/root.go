package cli

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root command. Every flag can also be set through
// a REPOSE_<FLAG> environment variable, dashes replaced by underscores.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("repose")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "repose",
		Short: "Build pacman repositories from package archives",
		Long: `Repose reads the .PKGINFO metadata of pacman packages and maintains
the repository databases (<repo>.db, <repo>.files) that pacman syncs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			// Setup logging
			if v.GetBool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewInfoCmd(v))
	rootCmd.AddCommand(NewUpdateCmd(v))
	rootCmd.AddCommand(NewRemoveCmd(v))
	rootCmd.AddCommand(NewQueryCmd(v))
	rootCmd.AddCommand(NewVerifyCmd(v))
	rootCmd.AddCommand(NewExportKeyCmd(v))

	return rootCmd
}
