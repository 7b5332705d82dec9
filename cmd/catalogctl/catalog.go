package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pelyams/sneaker_house_service/internal/config"
	"github.com/pelyams/sneaker_house_service/internal/contact"
	"github.com/pelyams/sneaker_house_service/internal/domain"
	"github.com/pelyams/sneaker_house_service/internal/service"
)

func newCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := c.catalog()
			if err != nil {
				return err
			}
			defer cleanup()
			cats, serr := svc.LoadCategories(cmd.Context())
			warn(cmd, serr)
			return printCategories(c.out, cats)
		},
	}
}

func newSneakersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sneakers",
		Short: "List sneakers, optionally narrowed to a category and rarity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			category, _ := cmd.Flags().GetString("category")
			rarity, _ := cmd.Flags().GetString("rarity")

			svc, cleanup, err := c.catalog()
			if err != nil {
				return err
			}
			defer cleanup()

			var sneakers []domain.Sneaker
			var serr *domain.ServiceError
			if category != "" {
				sneakers, serr = svc.GetSneakersByCategory(cmd.Context(), category)
			} else {
				sneakers, serr = svc.LoadSneakers(cmd.Context())
			}
			warn(cmd, serr)
			sneakers, err = service.FilterByRarity(sneakers, rarity)
			if err != nil {
				return err
			}
			return printSneakers(c.out, sneakers)
		},
	}
	cmd.Flags().String("category", "", "Category slug, matched against the brand")
	cmd.Flags().String("rarity", domain.RarityAll, "Rarity filter: all or common or rare or ultra-rare")
	return cmd
}

func newProductCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "product <slug>",
		Short: "Show one sneaker and its WhatsApp order link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(c.v)
			if err != nil {
				return err
			}
			svc, cleanup, err := c.catalog()
			if err != nil {
				return err
			}
			defer cleanup()

			sneaker, found, serr := svc.GetSneakerBySlug(cmd.Context(), args[0])
			warn(cmd, serr)
			if !found {
				return fmt.Errorf("%w: product %q", domain.ErrNotFound, args[0])
			}
			link := contact.NewBuilder(cfg.WhatsAppNumber, "").
				OrderLink(fmt.Sprintf("%s/product/%s", cfg.PublicBaseURL, sneaker.Slug))
			return printSneaker(c.out, sneaker, link)
		},
	}
}

func newContactCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Build a WhatsApp inquiry link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(c.v)
			if err != nil {
				return err
			}
			var inq domain.Inquiry
			inq.Name, _ = cmd.Flags().GetString("name")
			inq.Phone, _ = cmd.Flags().GetString("phone")
			inq.Email, _ = cmd.Flags().GetString("email")
			inq.Product, _ = cmd.Flags().GetString("product")
			inq.Size, _ = cmd.Flags().GetString("size")
			inq.Message, _ = cmd.Flags().GetString("message")

			link, err := contact.NewBuilder(cfg.WhatsAppNumber, "").InquiryLink(inq)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, link)
			return err
		},
	}
	cmd.Flags().String("name", "", "Your name (required)")
	cmd.Flags().String("phone", "", "Your WhatsApp number (required)")
	cmd.Flags().String("email", "", "Your email")
	cmd.Flags().String("product", "", "Sneaker you are asking about (required)")
	cmd.Flags().String("size", "", "Size, e.g. \"UK 9\" (required)")
	cmd.Flags().String("message", "", "Anything else")
	return cmd
}

// warn reports data that was replaced by a fallback.
func warn(cmd *cobra.Command, serr *domain.ServiceError) {
	if serr == nil {
		return
	}
	for _, err := range serr.NonCriticalErrors {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: showing fallback data:", err)
	}
}

func printCategories(w io.Writer, cats []domain.Category) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Slug", "Count", "Featured"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, cat := range cats {
		data = append(data, []string{cat.Name, cat.Slug, strconv.Itoa(cat.Count), cat.Featured})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

var (
	ultraRareColor = color.New(color.FgRed, color.Bold)
	rareColor      = color.New(color.FgYellow)
	commonColor    = color.New(color.FgHiBlack)
)

// rarityLabel colors the tier; color disables itself when stdout is not a terminal.
func rarityLabel(r domain.Rarity) string {
	switch r {
	case domain.RarityUltraRare:
		return ultraRareColor.Sprint(string(r))
	case domain.RarityRare:
		return rareColor.Sprint(string(r))
	default:
		return commonColor.Sprint(string(r))
	}
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func printSneakers(w io.Writer, sneakers []domain.Sneaker) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Brand", "Year", "Rarity", "Price", "Slug"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, s := range sneakers {
		data = append(data, []string{
			s.Name,
			s.Brand,
			strconv.Itoa(s.Year),
			rarityLabel(s.Rarity),
			formatPrice(s.Price),
			s.Slug,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func printSneaker(w io.Writer, s domain.Sneaker, orderLink string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	data := [][]string{
		{"Name", s.Name},
		{"Brand", s.Brand},
		{"Year", strconv.Itoa(s.Year)},
		{"Rarity", rarityLabel(s.Rarity)},
		{"Price", formatPrice(s.Price)},
		{"Image", s.Image},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Order on WhatsApp: %s\n", orderLink)
	return err
}
