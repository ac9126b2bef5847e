package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/brief/internal/cache"
	"github.com/dshills/brief/internal/config"
)

var flagStatsJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the model response cache",
}

// openCache opens the configured response cache even when caching is
// disabled for requests, so its contents can still be managed.
func openCache() (*cache.Cache, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached model responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Cache cleared.")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached responses older than the TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()
		n, err := c.Prune()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed %d expired %s.\n", n, plural(n, "entry", "entries"))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()
		stats, err := c.GetStats()
		if err != nil {
			return err
		}
		if flagStatsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}
		writeCacheStats(os.Stdout, stats)
		return nil
	},
}

func writeCacheStats(w io.Writer, s cache.Stats) {
	fmt.Fprintf(w, "Location: %s\n", s.Dir)
	fmt.Fprintf(w, "Entries:  %d (%d expired)\n", s.Entries, s.Expired)
	fmt.Fprintf(w, "Size:     %s\n", humanize.Bytes(uint64(s.TotalBytes)))
	if s.TTLSeconds > 0 {
		fmt.Fprintf(w, "TTL:      %s\n", time.Duration(s.TTLSeconds)*time.Second)
	} else {
		fmt.Fprintln(w, "TTL:      none")
	}
	if s.Entries > 0 {
		fmt.Fprintf(w, "Oldest:   %s\n", humanize.Time(s.Oldest))
		fmt.Fprintf(w, "Newest:   %s\n", humanize.Time(s.Newest))
	}
	if s.Expired > 0 {
		fmt.Fprintln(w, "Run 'brief cache prune' to remove expired entries.")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheStatsCmd.Flags().BoolVar(&flagStatsJSON, "json", false, "Print statistics as JSON")
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
