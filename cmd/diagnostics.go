// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/jdfalk/mbseries/internal/config"
	"github.com/jdfalk/mbseries/internal/database"
	"github.com/jdfalk/mbseries/internal/models"
	"github.com/spf13/cobra"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the library database.",
	}

	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show database location, schema version and album count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnosticsInfo(cmd)
		},
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup-missing",
		Short: "Remove albums whose files no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runCleanupMissing(cmd, force, dryRun)
		},
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Inspect stored album records",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			raw, _ := cmd.Flags().GetBool("raw")
			return runDiagnosticsQuery(cmd, limit, prefix, raw)
		},
	}
)

func init() {
	cleanupCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	cleanupCmd.Flags().Bool("dry-run", false, "List stale albums without deleting")

	queryCmd.Flags().Int("limit", 5, "Number of records to display")
	queryCmd.Flags().String("prefix", "album:", "Key prefix to inspect when --raw is set")
	queryCmd.Flags().Bool("raw", false, "Show raw Pebble key/value data (Pebble only)")

	diagnosticsCmd.AddCommand(infoCmd)
	diagnosticsCmd.AddCommand(cleanupCmd)
	diagnosticsCmd.AddCommand(queryCmd)
}

func ensureDiagnosticsStore(cmd *cobra.Command) (func(), error) {
	log, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	_, closer, err := openLibrary(log)
	return closer, err
}

func runDiagnosticsInfo(cmd *cobra.Command) error {
	closer, err := ensureDiagnosticsStore(cmd)
	if err != nil {
		return err
	}
	defer closer()

	version, err := database.CurrentVersion(database.GlobalStore)
	if err != nil {
		return err
	}
	count, err := database.GlobalStore.CountAlbums()
	if err != nil {
		return fmt.Errorf("failed to count albums: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)
	fmt.Fprintf(out, "Schema version: %d\n", version)
	fmt.Fprintf(out, "Albums: %d\n", count)
	fmt.Fprintf(out, "Library: %s\n", config.AppConfig.LibraryDir)
	return nil
}

func runCleanupMissing(cmd *cobra.Command, force, dryRun bool) error {
	closer, err := ensureDiagnosticsStore(cmd)
	if err != nil {
		return err
	}
	defer closer()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Inspecting albums in %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

	albums, err := database.GlobalStore.GetAllAlbums()
	if err != nil {
		return fmt.Errorf("failed to fetch albums: %w", err)
	}
	var stale []models.Album
	for _, album := range albums {
		if missingFiles(album) {
			stale = append(stale, album)
		}
	}

	if len(stale) == 0 {
		fmt.Fprintln(out, "No stale album records detected.")
		return nil
	}

	fmt.Fprintf(out, "Found %d albums without files:\n", len(stale))
	for i, album := range stale {
		fmt.Fprintf(out, "%2d. ID: %s\n", i+1, album.ID)
		fmt.Fprintf(out, "    Album: %s\n", album.String())
	}

	if dryRun {
		fmt.Fprintln(out, "Dry run enabled; no deletions were performed.")
		return nil
	}

	if !force {
		confirmed, err := promptYesNo(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d records", len(stale)))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborted. No records deleted.")
			return nil
		}
	}

	deleted := 0
	for _, album := range stale {
		if err := database.GlobalStore.DeleteAlbum(album.ID); err != nil {
			fmt.Fprintf(out, "Failed to delete %s: %v\n", album.ID, err)
			continue
		}
		deleted++
	}

	fmt.Fprintf(out, "Deleted %d stale records. Run an import to add the files again.\n", deleted)
	return nil
}

// missingFiles reports whether none of the album's items exist on disk.
func missingFiles(album models.Album) bool {
	for _, item := range album.Items {
		if _, err := os.Stat(item.Path); err == nil {
			return false
		}
	}
	return true
}

func runDiagnosticsQuery(cmd *cobra.Command, limit int, prefix string, raw bool) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	if raw {
		if config.AppConfig.DatabaseType != "pebble" {
			return fmt.Errorf("raw inspection is only available for Pebble databases")
		}
		return runRawPebbleQuery(cmd.OutOrStdout(), limit, prefix)
	}

	closer, err := ensureDiagnosticsStore(cmd)
	if err != nil {
		return err
	}
	defer closer()

	albums, err := database.GlobalStore.GetAllAlbums()
	if err != nil {
		return fmt.Errorf("failed to fetch albums: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(albums) == 0 {
		fmt.Fprintln(out, "No albums found.")
		return nil
	}

	for i, album := range albums {
		if i >= limit {
			break
		}
		fmt.Fprintf(out, "%2d. ID: %s\n", i+1, album.ID)
		fmt.Fprintf(out, "    Album: %s\n", album.String())
		if album.MBAlbumID != "" {
			fmt.Fprintf(out, "    Release: %s\n", album.MBAlbumID)
		}
		if album.MBReleaseGroupID != "" {
			fmt.Fprintf(out, "    ReleaseGroup: %s\n", album.MBReleaseGroupID)
		}
		for _, field := range slices.Sorted(maps.Keys(album.Attributes)) {
			fmt.Fprintf(out, "    %s: %s\n", field, album.Get(field))
		}
		fmt.Fprintf(out, "    Items: %d\n", len(album.Items))
		fmt.Fprintln(out, "---")
	}

	return nil
}

func runRawPebbleQuery(out io.Writer, limit int, prefix string) error {
	db, err := pebble.Open(config.AppConfig.DatabasePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return fmt.Errorf("failed to open Pebble database: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		fmt.Fprintf(out, "Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Fprintf(out, "Value length: %d bytes\n", len(val))
		fmt.Fprintf(out, "Value preview: %s\n", truncateString(string(val), 500))
		fmt.Fprintln(out, "---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(out, "No keys matched the requested prefix.")
	}

	return nil
}

func promptYesNo(in io.Reader, out io.Writer, action string) (bool, error) {
	fmt.Fprintf(out, "%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
