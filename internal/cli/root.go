package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	asJSON  bool
	rpcURL  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ctfscan",
	Short: "Scanner for conditional-token markets on Polygon",
	Long: `ctfscan scans Polygon for conditional-token activity: exchange fills
and prepared conditions.

For every ConditionPreparation event it re-derives the condition ID
locally from the event's oracle, question ID and outcome slot count,
and reports whether the emitted ID reproduces. Mismatches that
reproduce under the padded abi.encode scheme are attributed to that
legacy encoding.

The emitted ID is always authoritative; derivation results are
diagnostics.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ctfscan v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ctfscan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "emit JSON instead of tables")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "RPC endpoint (overrides config)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.ctfscan")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CTFSCAN_*
	viper.SetEnvPrefix("CTFSCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
