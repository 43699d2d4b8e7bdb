// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jdfalk/mbseries/internal/config"
	"github.com/jdfalk/mbseries/internal/database"
	"github.com/jdfalk/mbseries/internal/library"
	"github.com/jdfalk/mbseries/internal/logger"
	"github.com/jdfalk/mbseries/internal/metadata"
	"github.com/jdfalk/mbseries/internal/metrics"
	"github.com/jdfalk/mbseries/internal/organizer"
	"github.com/jdfalk/mbseries/internal/scanner"
	"github.com/jdfalk/mbseries/internal/series"
	"github.com/jdfalk/mbseries/internal/tagger"
	"github.com/jdfalk/mbseries/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var libraryDir string
var databasePath string
var databaseType string
var enableSQLite bool
var logLevel string
var metricsFile string

// Replaced in tests.
var (
	newCatalog = func(cfg config.MusicBrainzConfig) series.CatalogClient {
		return metadata.NewMusicBrainzClientWithBaseURL(cfg.BaseURL, cfg.UserAgent, cfg.RateLimit)
	}
	newTagWriter = func() tagger.Writer {
		return tagger.NewTaglibWriter()
	}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mbseries",
	Short: "Tag library albums with their MusicBrainz series",
	Long: `mbseries keeps a library of albums and maps MusicBrainz series
membership onto it: series id, series name and volume number are written
to every album that belongs to a release or release group series.`,
	SilenceUsage: true,
}

var seriesOpts struct {
	id      string
	pretend bool
	move    bool
	nomove  bool
	nowrite bool
}

// seriesCmd represents the series command
var seriesCmd = &cobra.Command{
	Use:   "series [QUERY...]",
	Short: "Fetch series data from MusicBrainz",
	Long: `Fetch a MusicBrainz series and write series id, name and volume to
the albums selected by QUERY that are members of it.`,
	RunE: timed("series", func(cmd *cobra.Command, args []string) error {
		log, err := setup(cmd)
		if err != nil {
			return err
		}
		lib, closer, err := openLibrary(log)
		if err != nil {
			return err
		}
		defer closer()

		plugin := series.NewPlugin(newCatalog(config.AppConfig.MusicBrainz), config.AppConfig.Series.Fields, log)
		res, err := plugin.Run(cmd.Context(), lib, series.Options{
			SeriesID: seriesOpts.id,
			Query:    args,
			Move:     resolveMove(config.AppConfig.Move),
			Pretend:  seriesOpts.pretend,
			Write:    config.AppConfig.Write && !seriesOpts.nowrite,
		}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.Info("series done", "matched", res.Matched, "changed", res.Changed, "pretend", seriesOpts.pretend)
		return nil
	}),
}

var importOpts struct {
	seriesID string
	watch    bool
}

// watchDebounce is how long import --watch waits for changes to settle.
var watchDebounce = watcher.DefaultDebounce

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Add the audio files of a directory to the library",
	Long: `Scan DIR for audio files, group them into albums by MusicBrainz
release id or by album artist and title, and store the new albums. With
--series and series.auto enabled the imported albums are matched against
that series right away. With --watch the directory is imported again
whenever audio files appear in it, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: timed("import", func(cmd *cobra.Command, args []string) error {
		log, err := setup(cmd)
		if err != nil {
			return err
		}
		lib, closer, err := openLibrary(log)
		if err != nil {
			return err
		}
		defer closer()

		if err := runImport(cmd, lib, log, args[0]); err != nil {
			return err
		}
		if !importOpts.watch {
			return nil
		}

		w := watcher.New(func(dir string) {
			if err := runImport(cmd, lib, log, dir); err != nil {
				log.Error("import failed", "dir", dir, "error", err)
			}
		}, watcher.Options{
			Extensions: config.AppConfig.SupportedExtensions,
			Debounce:   watchDebounce,
		}, log)
		return w.Watch(cmd.Context(), args[0])
	}),
}

// runImport imports dir once and applies the --series series to the new
// albums when series.auto allows it.
func runImport(cmd *cobra.Command, lib *library.Library, log hclog.Logger, dir string) error {
	sc := scanner.New(database.GlobalStore, scanner.Options{
		Extensions: config.AppConfig.SupportedExtensions,
		Workers:    runtime.NumCPU(),
		Progress:   cmd.ErrOrStderr(),
	}, log)
	albums, err := sc.Import(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("import error: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d albums\n", len(albums))

	if importOpts.seriesID == "" || len(albums) == 0 {
		return nil
	}
	if !config.AppConfig.Series.Auto {
		log.Info("series.auto is disabled, not looking up series", "series", importOpts.seriesID)
		return nil
	}

	plugin := series.NewPlugin(newCatalog(config.AppConfig.MusicBrainz), config.AppConfig.Series.Fields, log)
	s, err := plugin.Fetch(cmd.Context(), importOpts.seriesID)
	if err != nil || s == nil {
		return err
	}
	_, err = plugin.Apply(cmd.Context(), lib, s, albums, series.Options{
		SeriesID: importOpts.seriesID,
		Move:     config.AppConfig.Move,
		Write:    config.AppConfig.Write,
	}, cmd.OutOrStdout())
	return err
}

var listFormat string

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls [QUERY...]",
	Short: "List library albums matching a query",
	RunE: timed("ls", func(cmd *cobra.Command, args []string) error {
		log, err := setup(cmd)
		if err != nil {
			return err
		}
		lib, closer, err := openLibrary(log)
		if err != nil {
			return err
		}
		defer closer()

		albums, err := lib.Albums(cmd.Context(), args)
		if err != nil {
			return err
		}
		for _, a := range albums {
			fmt.Fprintln(cmd.OutOrStdout(), formatAlbum(listFormat, a.ID, a.Get))
		}
		return nil
	}),
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.Dump(cmd.OutOrStdout(), &config.AppConfig)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext is Execute with a context that commands pass on to
// MusicBrainz requests and commits.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mbseries.yaml)")
	rootCmd.PersistentFlags().StringVar(&libraryDir, "library", "", "library directory albums are moved into")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "path to database (default: ~/.mbseries/library.pebble)")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "pebble", "database type: pebble (default) or sqlite")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "enable SQLite3 database (WARNING: cross-compilation issues, PebbleDB recommended)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error or off")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path on exit")

	viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))

	seriesCmd.Flags().StringVarP(&seriesOpts.id, "id", "S", "", "query MusicBrainz series with this id")
	seriesCmd.Flags().BoolVarP(&seriesOpts.pretend, "pretend", "p", false, "show changes without committing them")
	seriesCmd.Flags().BoolVarP(&seriesOpts.move, "move", "m", false, "move files in the library directory")
	seriesCmd.Flags().BoolVarP(&seriesOpts.nomove, "nomove", "M", false, "don't move files in the library directory")
	seriesCmd.Flags().BoolVarP(&seriesOpts.nowrite, "nowrite", "W", false, "don't write updated metadata to files")
	seriesCmd.MarkFlagsMutuallyExclusive("move", "nomove")

	importCmd.Flags().StringVar(&importOpts.seriesID, "series", "", "apply this MusicBrainz series to the imported albums")
	importCmd.Flags().BoolVarP(&importOpts.watch, "watch", "w", false, "keep watching DIR and import new files as they appear")
	lsCmd.Flags().StringVarP(&listFormat, "format", "f", "{albumartist} - {album}", "output template, e.g. '{id} {series} {volume}'")

	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mbseries")
	}

	viper.SetEnvPrefix("mbseries")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine; an explicit one must load.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
	}

	config.InitConfig()
}

// setup validates the configuration and builds the command logger.
func setup(cmd *cobra.Command) (hclog.Logger, error) {
	if err := config.Validate(&config.AppConfig); err != nil {
		return nil, err
	}
	log := logger.New(config.AppConfig.LogLevel, cmd.ErrOrStderr())
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("using config file", "path", used)
	}
	return log, nil
}

// openLibrary opens the configured store and wires the library around it.
func openLibrary(log hclog.Logger) (*library.Library, func(), error) {
	if dbDir := filepath.Dir(config.AppConfig.DatabasePath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite, log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Debug("using database", "path", config.AppConfig.DatabasePath, "type", config.AppConfig.DatabaseType)

	org := organizer.NewOrganizer(&config.AppConfig, log)
	lib := library.New(database.GlobalStore, org, newTagWriter(), log)
	return lib, func() { database.CloseStore() }, nil
}

// resolveMove applies --move/--nomove on top of the configured default.
func resolveMove(def bool) bool {
	switch {
	case seriesOpts.move:
		return true
	case seriesOpts.nomove:
		return false
	}
	return def
}

// timed records the command duration and writes the metrics file, if one
// is configured, whatever the command's outcome.
func timed(name string, run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		err := run(cmd, args)
		metrics.ObserveCommandDuration(name, time.Since(start))

		if path := config.AppConfig.MetricsFile; path != "" {
			if werr := metrics.WriteTextfile(path); werr != nil && err == nil {
				err = werr
			}
		}
		return err
	}
}

var formatField = regexp.MustCompile(`\{([a-z_]+)\}`)

// formatAlbum expands {field} placeholders in a list template.
func formatAlbum(format, id string, get func(string) string) string {
	return formatField.ReplaceAllStringFunc(format, func(m string) string {
		field := m[1 : len(m)-1]
		if field == "id" {
			return id
		}
		return get(field)
	})
}
