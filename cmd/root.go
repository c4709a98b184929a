package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/rulewatch/internal/utils"
	"github.com/sw33tLie/rulewatch/pkg/storage"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `                 __                    __       __  
   _______  __  / /__ _      ______ _/ /______/ /_ 
  / ___/ / / / / / _ \ | /| / / __ '/ __/ ___/ __ \
 / /  / /_/ / / /  __/ |/ |/ / /_/ / /_/ /__/ / / /
/_/   \__,_/ /_/\___/|__/|__/\__,_/\__/\___/_/ /_/ 

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rulewatch",
	Short: "Version archive and redline reports for regulatory rule pages.",
	Long: LOGO + `rulewatch keeps an append-only archive of the rule pages you track, detects
when their text changes and produces side-by-side redline reports.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rulewatch.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("dbpath", "", "data/regulations.db", "Path to the SQLite snapshot archive")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")

	viper.BindPFlag("dbpath", rootCmd.PersistentFlags().Lookup("dbpath"))
	viper.BindPFlag("fetch.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Default values for all keys, also written to a freshly created config.
	viper.SetDefault("rules", "data/tracked_rules.json")
	viper.SetDefault("dbpath", "data/regulations.db")
	viper.SetDefault("reports", "reports")
	viper.SetDefault("fetch.proxy", "")
	viper.SetDefault("fetch.timeout", "15s")
	viper.SetDefault("fetch.retries", 3)
	viper.SetDefault("fetch.mode", "text")
	viper.SetDefault("web.username", "")
	viper.SetDefault("web.password", "")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".rulewatch")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("rulewatch")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".rulewatch.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// openArchive opens the configured archive and makes sure its schema
// exists. With mustExist set, a missing file is an error instead of a new
// empty archive.
func openArchive(ctx context.Context, mustExist bool) (*storage.DB, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("dbpath"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if mustExist {
			return nil, fmt.Errorf("archive not found: %s (run 'rulewatch audit' first)", dbPath)
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// lockArchive takes the writer lock for the configured archive.
func lockArchive() (*utils.ArchiveLock, error) {
	lock, err := utils.NewArchiveLock(viper.GetString("dbpath"))
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	return lock, nil
}
