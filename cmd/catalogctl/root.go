package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pelyams/sneaker_house_service/internal/adapters/cache"
	"github.com/pelyams/sneaker_house_service/internal/adapters/source"
	"github.com/pelyams/sneaker_house_service/internal/config"
	"github.com/pelyams/sneaker_house_service/internal/loader"
	"github.com/pelyams/sneaker_house_service/internal/ports"
	"github.com/pelyams/sneaker_house_service/internal/service"
)

// cli carries the state shared by every subcommand.
type cli struct {
	v   *viper.Viper
	out io.Writer
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{out: os.Stdout, log: logrus.New()}
	c.log.SetOutput(os.Stderr)

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Browse the Sneaker House catalog and manage its cache.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			return c.initConfig(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default ./catalog.yaml)")
	flags.String("source", "", "Catalog source: http or file or postgres")
	flags.String("base-url", "", "Base URL of the http source")
	flags.String("dir", "", "Root directory of the file source")
	flags.Bool("verbose", false, "Log fallbacks and cache activity to stderr")

	rootCmd.AddCommand(
		newCategoriesCmd(c),
		newSneakersCmd(c),
		newProductCmd(c),
		newContactCmd(c),
		newCacheCmd(c),
		newPublishCmd(c),
		newDocumentsCmd(c),
	)
	return rootCmd
}

// initConfig layers flags on top of the service config: defaults, file, env.
func (c *cli) initConfig(cmd *cobra.Command) error {
	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(configFile)
	if err != nil {
		return err
	}
	bindings := map[string]string{
		"catalog.source":   "source",
		"catalog.base_url": "base-url",
		"catalog.dir":      "dir",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		c.log.SetLevel(logrus.DebugLevel)
	} else {
		c.log.SetLevel(logrus.ErrorLevel)
	}
	c.v = v
	return nil
}

// catalog builds a one-shot catalog service. The cache lives only as long as
// the command, so it is always the in-memory one.
func (c *cli) catalog() (*service.CatalogService, func(), error) {
	cfg, err := config.LoadFrom(c.v)
	if err != nil {
		return nil, nil, err
	}
	var src ports.Source
	cleanup := func() {}
	switch cfg.Source {
	case config.SourceHTTP:
		src = source.NewHTTPSource(cfg.SourceBaseURL, source.NewHTTPClient(cfg.SourceTimeout))
	case config.SourceFile:
		src = source.NewFileSource(os.DirFS(cfg.SourceDir))
	case config.SourcePostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		src = source.NewPostgresSource(db)
		cleanup = func() { _ = db.Close() }
	}
	l, err := loader.New(cache.NewMemoryCache(), src, loader.Config{DefaultTTL: cfg.CacheTTL}, c.log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return service.NewCatalogService(l), cleanup, nil
}
