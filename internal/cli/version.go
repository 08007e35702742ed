package cli

import (
	"encoding/json"
	"fmt"

	"github.com/andywolf/speclinear/internal/config"
	"github.com/andywolf/speclinear/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including commit hash and build date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if viper.GetString("output.format") == config.FormatJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(version.Fields())
		}
		if viper.GetBool("verbose") {
			fmt.Fprintln(out, version.Full())
		} else {
			fmt.Fprintln(out, version.Info())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
