// Command jmaradar decodes JMA 1 km composite radar GRIB2 messages.
//
// Usage:
//
//	jmaradar info <source>
//	jmaradar value <source> <lat> <lon>
//	jmaradar stats <source>
//
// A source is a file path or an http(s) URL. Gzip and zstd compressed
// messages are detected by their magic number and decompressed.
//
// Examples:
//
//	jmaradar info Z__C_RJTD_20240701123000_RDR_JMAGPV_Ggis1km_Prr10lv_ANAL_grib2.bin
//	jmaradar value --json latest.bin.gz 35.68 139.77
//	jmaradar stats --mode lenient https://example.com/radar.bin.zst
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/geal-ai/grib2jma"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// flagKeys maps persistent flags to their config keys. Keys are also read
// from JMARADAR_<KEY> environment variables.
var flagKeys = map[string]string{
	"config":     "config",
	"log-level":  "log_level",
	"log-format": "log_format",
	"mode":       "mode",
	"rows":       "rows",
	"columns":    "columns",
	"timeout":    "timeout",
	"max-bytes":  "max_bytes",
}

func newRootCmd() *cobra.Command {
	app := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "jmaradar",
		Short: "Decode JMA 1 km composite radar GRIB2 messages",
		Long: `jmaradar reads Japan Meteorological Agency 1 km mesh composite radar
messages (GRIB2, run-length packed, template 5.200) and prints their
metadata, point values and grid statistics.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Configuration file path (yaml, json or toml)")
	pf.String("log-level", "warn", "Logging level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("mode", "strict", "Decode mode: strict aborts on a section mismatch, lenient skips the section")
	pf.Int("rows", grib2jma.DefaultRows, "Grid rows")
	pf.Int("columns", grib2jma.DefaultColumns, "Grid columns")
	pf.Duration("timeout", 60*time.Second, "Timeout for fetching URL sources")
	pf.Int64("max-bytes", grib2jma.DefaultMaxBytes, "Largest message accepted, after decompression")
	for flag, key := range flagKeys {
		_ = app.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newInfoCmd(app),
		newValueCmd(app),
		newStatsCmd(app),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jmaradar %s\n", version)
		},
	}
}
