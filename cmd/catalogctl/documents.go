package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pelyams/sneaker_house_service/internal/adapters/repository"
	"github.com/pelyams/sneaker_house_service/internal/config"
	"github.com/pelyams/sneaker_house_service/internal/domain"
)

func (c *cli) documents() (*repository.DocumentRepository, func(), error) {
	cfg, err := config.LoadFrom(c.v)
	if err != nil {
		return nil, nil, err
	}
	db, err := openPostgres(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewDocumentRepository(db), func() { _ = db.Close() }, nil
}

func newPublishCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <dir>",
		Short: "Upload every JSON document under dir to the postgres source",
		Long: `Publish walks dir and stores each *.json file in catalog_documents under its
path relative to dir, so <dir>/sneakers/products.json becomes
/sneakers/products.json. Running services pick the change up once their cached
copy expires, or right away after "catalogctl cache clear".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := c.documents()
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := publishDir(cmd.Context(), repo, os.DirFS(args[0]), c.out)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "Published %d document(s)\n", n)
			return err
		},
	}
}

// documentStore is the part of the repository publishDir needs.
type documentStore interface {
	PutDocument(ctx context.Context, path string, body []byte) error
}

func publishDir(ctx context.Context, store documentStore, fsys fs.FS, out io.Writer) (int, error) {
	published := 0
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		key := path.Join("/", p)
		if err := store.PutDocument(ctx, key, body); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s (%d bytes)\n", key, len(body))
		published++
		return nil
	})
	return published, err
}

func newDocumentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents stored in the postgres source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, cleanup, err := c.documents()
			if err != nil {
				return err
			}
			defer cleanup()

			docs, err := repo.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			return printDocuments(c.out, docs)
		},
	}
	cmd.AddCommand(newDocumentsDeleteCmd(c))
	return cmd
}

func newDocumentsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <path>",
		Short:   "Remove one document from the postgres source",
		Example: "  catalogctl documents delete /sneakers/products.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := c.documents()
			if err != nil {
				return err
			}
			defer cleanup()
			return deleteDocument(cmd.Context(), repo, args[0], c.out)
		},
	}
}

type documentDeleter interface {
	DeleteDocument(ctx context.Context, path string) error
}

// deleteDocument accepts paths with or without the leading slash.
func deleteDocument(ctx context.Context, store documentDeleter, p string, out io.Writer) error {
	key := path.Join("/", p)
	if err := store.DeleteDocument(ctx, key); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no document stored at %s", key)
		}
		return err
	}
	_, err := fmt.Fprintf(out, "Deleted %s\n", key)
	return err
}

func printDocuments(w io.Writer, docs []domain.DocumentInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Path", "Size", "Updated"})
	var data [][]string
	for _, d := range docs {
		data = append(data, []string{d.Path, strconv.Itoa(d.Size), d.UpdatedAt.Format(time.RFC3339)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
