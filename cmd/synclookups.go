package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/fetcher"
)

var syncLookupsCmd = &cobra.Command{
	Use:   "sync-lookups",
	Short: "Download the circuit cross-reference and site directory",
	Long:  "Downloads the configured lookup tables (xref.url, sites.url) to their local paths. Tables without a configured URL are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		synced := 0
		for _, tbl := range []struct {
			name string
			url  string
			path string
		}{
			{"xref", cfg.Xref.URL, cfg.Xref.Path},
			{"sites", cfg.Sites.URL, cfg.Sites.Path},
		} {
			if tbl.url == "" {
				zap.L().Info("sync-lookups: no url configured, skipping", zap.String("table", tbl.name))
				continue
			}
			if err := syncLookup(ctx, tbl.url, tbl.path); err != nil {
				return eris.Wrapf(err, "sync %s", tbl.name)
			}
			zap.L().Info("sync-lookups: table synced",
				zap.String("table", tbl.name),
				zap.String("path", tbl.path),
			)
			synced++
		}

		zap.L().Info("sync-lookups: done", zap.Int("synced", synced))
		return nil
	},
}

func syncLookup(ctx context.Context, url, path string) error {
	f, err := lookupFetcher(url)
	if err != nil {
		return err
	}
	_, err = f.DownloadToFile(ctx, url, path)
	return err
}

func lookupFetcher(url string) (fetcher.Fetcher, error) {
	switch {
	case strings.HasPrefix(url, "ftp://"):
		return fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		}), nil
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RatePerSec: cfg.Fetch.RatePerSec,
		}), nil
	default:
		return nil, eris.Errorf("unsupported lookup url scheme: %s", url)
	}
}

func init() {
	rootCmd.AddCommand(syncLookupsCmd)
}
