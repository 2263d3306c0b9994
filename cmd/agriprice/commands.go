package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/agriprice/internal/forecast"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// --- Prices Command ---

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show current prices for the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		list, tier, err := sc.Monitor.CurrentPrices(cmd.Context())
		if err != nil {
			return err
		}
		category, _ := cmd.Flags().GetString("category")
		all, _ := cmd.Flags().GetBool("all")

		fmt.Printf("🌾 Current prices (tier: %s)\n\n", tier)
		printPrices(list, strings.ToUpper(strings.TrimSpace(category)), all)
		return nil
	},
}

func init() {
	pricesCmd.Flags().String("category", "", "only show one category, e.g. FISH")
	pricesCmd.Flags().Bool("all", false, "include commodities without a price")
}

// --- Refresh Command ---

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch prices from the upstream report and overwrite the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		res, err := sc.Monitor.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("🔄 Refresh %s\n", res.ID)
		fmt.Printf("   Tier:     %s\n", res.Tier)
		fmt.Printf("   Records:  %d\n", res.Records)
		fmt.Printf("   Matched:  %d of %d commodities\n", res.Matched, len(res.Commodities))
		fmt.Printf("   Duration: %s\n", res.Duration.Round(time.Millisecond))
		return nil
	},
}

// --- Forecast Command ---

var forecastCmd = &cobra.Command{
	Use:   "forecast [name] [price]",
	Short: "Forecast the price of a commodity",
	Long: `Forecast next week's and next month's price for a commodity at the
given current price.

Examples:
  agriprice forecast Bangus 180
  agriprice forecast "Pork Belly (Liempo)" 350.50`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", args[1])
		}
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		fc, err := sc.Forecaster.Forecast(cmd.Context(), args[0], price)
		if err != nil {
			return err
		}
		fmt.Printf("📈 %s at %s\n", fc.CommodityName, utils.FormatPeso(price))
		fmt.Printf("   Next week:  %s\n", utils.FormatPeso(fc.NextWeek))
		fmt.Printf("   Next month: %s\n", utils.FormatPeso(fc.NextMonth))
		fmt.Printf("   Trend:      %s (%d%% confidence)\n", fc.Trend, fc.Confidence)
		fmt.Printf("   Factors:    %s\n", strings.Join(fc.Factors, ", "))
		if text, err := forecast.NewEngine(sc.Clock).Analysis(args[0]); err == nil {
			fmt.Printf("\n%s\n", text)
		}
		return nil
	},
}

// --- Stats Command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show price coverage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		st, err := sc.Monitor.Statistics(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("📊 Commodities:        %d\n", st.TotalCommodities)
		fmt.Printf("   With prices:        %d\n", st.CommoditiesWithPrices)
		fmt.Printf("   Avg. change:        %+.2f%%\n", st.AveragePriceChange)
		for _, src := range []models.PriceSource{models.SourcePersisted, models.SourceRemote, models.SourceSynthetic} {
			if n := st.BySource[src]; n > 0 {
				fmt.Printf("   %-19s %d\n", string(src)+":", n)
			}
		}
		if !st.LastUpdated.IsZero() {
			fmt.Printf("   Last refresh:       %s\n", utils.ToPHT(st.LastUpdated).Format("2006-01-02 15:04 MST"))
		}
		return nil
	},
}

// --- Import Command ---

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import price report rows from a JSON or CSV file",
	Long: `Import price report rows into the stored price history. JSON files hold
an array of {Commodity, Type, Specification, Amount, Date} objects (or
{"rows": [...]}); CSV files use the same column names in a header row.
Rows already stored are skipped. One bad row rejects the whole file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readRows(args[0])
		if err != nil {
			return err
		}
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		res, err := sc.Monitor.ImportStored(cmd.Context(), rows)
		if err != nil {
			return err
		}
		fmt.Printf("📥 Imported %d of %d rows (%d already stored, %d total)\n",
			res.Added, res.Received, res.Skipped, res.Total)
		return nil
	},
}

// --- Cache Commands ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local price cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached collections and their freshness",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		st := sc.Monitor.CacheStatus(cmd.Context())
		fmt.Printf("🗄  Cache TTL: %s\n", st.TTL)
		if st.LastUpdated != nil {
			fmt.Printf("   Last refresh: %s\n", utils.ToPHT(*st.LastUpdated).Format("2006-01-02 15:04 MST"))
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "\nCOLLECTION\tITEMS\tAGE\tVALID")
		for _, c := range st.Collections {
			if !c.Present {
				fmt.Fprintf(tw, "%s\t-\t-\tno\n", c.Collection)
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.Collection, c.Items, c.Age.Round(time.Second), yesNo(c.Valid))
		}
		return tw.Flush()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached collection, including stored report rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()

		if err := sc.Monitor.ClearCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("🧹 Cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// --- Output helpers ---

func printPrices(list []models.EnrichedCommodity, category string, all bool) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOMMODITY\tPRICE\tCHANGE\tSOURCE\tDATE")
	for _, ec := range list {
		if category != "" && string(ec.Category) != category {
			continue
		}
		if ec.Price == nil {
			if all {
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\n", ec.Category, ec.Name)
			}
			continue
		}
		p := ec.Price
		fmt.Fprintf(tw, "%s\t%s\t%s/%s\t%+.2f%%\t%s\t%s\n",
			ec.Category, ec.Name, utils.FormatPeso(p.Price), p.Unit, p.PriceChangePercent, p.Source, p.Date)
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
