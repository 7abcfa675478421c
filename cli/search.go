package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rentascout/rentascout-mvp/engine/domain"
	"github.com/rentascout/rentascout-mvp/engine/search"
	"github.com/rentascout/rentascout-mvp/engine/semantic"
)

func newSearchCmd() *cobra.Command {
	var (
		limit          int
		vehicleType    string
		color          string
		drivetrain     string
		transmission   string
		fuel           string
		seats          int
		minYear        int
		priceMin       float64
		priceMax       float64
		consumptionMin float64
		consumptionMax float64
		duration       int
		mileage        int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot semantic search against the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}

			filter := domain.SearchFilter{
				Query: strings.Join(args, " "),
				Limit: limit,
			}
			flags := cmd.Flags()
			if flags.Changed("type") {
				filter.Type = &vehicleType
			}
			if flags.Changed("color") {
				filter.Color = &color
			}
			if flags.Changed("drivetrain") {
				filter.Drivetrain = &drivetrain
			}
			if flags.Changed("transmission") {
				filter.Transmission = &transmission
			}
			if flags.Changed("fuel") {
				filter.Fuel = &fuel
			}
			if flags.Changed("seats") {
				filter.Seats = &seats
			}
			if flags.Changed("min-year") {
				filter.MinYear = &minYear
			}
			if flags.Changed("price-min") {
				filter.PriceMin = &priceMin
			}
			if flags.Changed("price-max") {
				filter.PriceMax = &priceMax
			}
			if flags.Changed("consumption-min") {
				filter.ConsumptionMin = &consumptionMin
			}
			if flags.Changed("consumption-max") {
				filter.ConsumptionMax = &consumptionMax
			}
			if flags.Changed("duration") {
				filter.Duration = &duration
			}
			if flags.Changed("mileage") {
				filter.Mileage = &mileage
			}

			return runSearch(cfg, filter)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultLimit, "maximum results")
	cmd.Flags().StringVar(&vehicleType, "type", "", "vehicle type, e.g. suv")
	cmd.Flags().StringVar(&color, "color", "", "exterior color")
	cmd.Flags().StringVar(&drivetrain, "drivetrain", "", "drivetrain, e.g. awd")
	cmd.Flags().StringVar(&transmission, "transmission", "", "transmission kind")
	cmd.Flags().StringVar(&fuel, "fuel", "", "fuel kind")
	cmd.Flags().IntVar(&seats, "seats", 0, "exact seat count")
	cmd.Flags().IntVar(&minYear, "min-year", 0, "minimum model year")
	cmd.Flags().Float64Var(&priceMin, "price-min", 0, "minimum monthly price")
	cmd.Flags().Float64Var(&priceMax, "price-max", 0, "maximum monthly price")
	cmd.Flags().Float64Var(&consumptionMin, "consumption-min", 0, "minimum consumption")
	cmd.Flags().Float64Var(&consumptionMax, "consumption-max", 0, "maximum consumption")
	cmd.Flags().IntVar(&duration, "duration", 0, "exact contract duration in months")
	cmd.Flags().IntVar(&mileage, "mileage", 0, "exact yearly mileage")
	return cmd
}

func runSearch(cfg Config, filter domain.SearchFilter) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vs, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	defer vs.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	svc := search.New(embedder, vs, search.DefaultOptions(), slog.Default())
	results, err := svc.Search(ctx, filter)
	if err != nil {
		return err
	}

	fmt.Println(search.FormatResults(results))
	return nil
}
