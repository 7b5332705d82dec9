package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pelyams/sneaker_house_service/internal/adapters/source"
	"github.com/pelyams/sneaker_house_service/internal/domain"
)

const defaultServer = "http://localhost:8080"

// cacheCmd talks to a running service; the cache of a one-shot command would
// be empty.
func newCacheCmd(c *cli) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cache of a running catalog service",
	}
	cacheCmd.PersistentFlags().String("server", defaultServer, "Base URL of the catalog service")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached documents with their age and TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats domain.CacheStats
			if err := cacheRequest(cmd, http.MethodGet, "", &stats); err != nil {
				return err
			}
			return printStats(c.out, stats)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear [key]",
		Short: "Drop every cached document, or only the one stored under key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = "/" + strings.TrimPrefix(args[0], "/")
			}
			if err := cacheRequest(cmd, http.MethodDelete, path, nil); err != nil {
				return err
			}
			if path == "" {
				path = "all entries"
			}
			_, err := fmt.Fprintf(c.out, "Cleared %s\n", path)
			return err
		},
	}

	cacheCmd.AddCommand(statsCmd, clearCmd)
	return cacheCmd
}

func cacheRequest(cmd *cobra.Command, method, path string, into any) error {
	server, _ := cmd.Flags().GetString("server")
	url := strings.TrimRight(server, "/") + "/debug/cache" + path

	req, err := http.NewRequestWithContext(cmd.Context(), method, url, nil)
	if err != nil {
		return err
	}
	resp, err := source.NewHTTPClient(10 * time.Second).Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if into == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func printStats(w io.Writer, stats domain.CacheStats) error {
	if _, err := fmt.Fprintf(w, "%d cached document(s)\n", stats.Size); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Key", "Size", "Age", "TTL"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, e := range stats.Entries {
		data = append(data, []string{
			e.Key,
			strconv.Itoa(e.DataSize),
			e.Age.Truncate(time.Second).String(),
			e.TTL.String(),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
