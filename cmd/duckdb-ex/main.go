// Command duckdb-ex runs SQL against a DuckDB database and prints the
// decoded rows, exercising the library's chunked extraction path.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	duckdb "github.com/alexiob/duckdb-ex"
)

var (
	dbPath   string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "duckdb-ex",
		Short: "Run SQL against a DuckDB database",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (empty for in-memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(queryCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute a SQL statement and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := duckdb.NewConnection(dbPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			slog.Debug("executing query", "sql", args[0], "db", dbPath)

			res, err := conn.Query(args[0])
			if err != nil {
				return err
			}
			defer res.Destroy()

			cols, err := res.Columns()
			if err != nil {
				return err
			}
			header := make([]string, len(cols))
			for i, col := range cols {
				header[i] = fmt.Sprintf("%s(%s)", col.Name, col.Type)
			}
			fmt.Println(strings.Join(header, "\t"))

			rows, err := res.AllRows()
			if err != nil {
				return err
			}
			for _, row := range rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = renderCell(v)
				}
				fmt.Println(strings.Join(cells, "\t"))
			}

			slog.Debug("query complete", "rows", len(rows))
			return nil
		},
	}
}

func renderCell(v duckdb.Value) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("%x", val)
	case duckdb.Interval:
		return fmt.Sprintf("%d mon %d days %d us", val.Months, val.Days, val.Micros)
	case duckdb.TimeTZ:
		return fmt.Sprintf("%d@%+d", val.Micros, val.OffsetSeconds)
	default:
		return fmt.Sprint(val)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the loaded DuckDB library version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := duckdb.GetDuckDBVersion()
			if err != nil {
				return err
			}
			fmt.Printf("duckdb %s (%s)\n", v, duckdb.LibraryPath())
			return nil
		},
	}
}
