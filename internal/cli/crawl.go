package cli

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/akolanti/docsync/internal/crawler"
	"github.com/akolanti/docsync/internal/customHttpClient"
)

func CrawlCmd() *cobra.Command {
	var (
		seed     string
		allow    string
		outDir   string
		maxPages int
		text     bool
		perSec   float64
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Mirror a website into a local directory",
		Long: `Fetches every page reachable from --seed whose URL contains --allow and saves
it under --out/<site>/. With --text the visible text of each page is written
next to the HTML so a later sync can ingest it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, flush, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer flush()

			if allow == "" {
				if u, err := url.Parse(seed); err == nil {
					allow = u.Host
				}
			}

			c := crawler.New(customHttpClient.GetClient(), allow, outDir)
			c.MaxPages = maxPages
			c.ExtractText = text
			if perSec > 0 {
				c.Limiter = rate.NewLimiter(rate.Limit(perSec), 1)
			}

			report, err := c.Crawl(ctx, seed)
			out := cmd.OutOrStdout()
			for _, p := range report.Pages {
				if p.Err != "" {
					fmt.Fprintf(out, "failed  %s: %s\n", p.URL, p.Err)
				} else {
					fmt.Fprintf(out, "saved   %s -> %s\n", p.URL, p.Path)
				}
			}
			fmt.Fprintf(out, "%d of %d pages saved under %s\n", report.Saved(), len(report.Pages), report.SiteDir)
			return err
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "URL to start from")
	cmd.Flags().StringVar(&allow, "allow", "", "only follow links containing this substring (defaults to the seed host)")
	cmd.Flags().StringVar(&outDir, "out", "./knowledge/crawled", "output directory")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages; 0 means no limit")
	cmd.Flags().BoolVar(&text, "text", false, "also save the visible text of each page as .txt")
	cmd.Flags().Float64Var(&perSec, "rate", 0, "requests per second; 0 means unpaced")
	_ = cmd.MarkFlagRequired("seed")

	return cmd
}
