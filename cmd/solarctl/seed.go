package main

import (
	"fmt"

	"solarshare/internal/database"
	"solarshare/internal/seed"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var (
		opts     seed.Options
		scenario string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo communities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a %s database", cfg.Env)
			}
			if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			sc := seed.DefaultScenario(opts)
			if scenario != "" {
				if sc, err = seed.LoadScenario(scenario); err != nil {
					return err
				}
			}

			sum, err := seed.NewSeeder(db, opts).Apply(cmd.Context(), sc)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			cmd.Printf("providers=%d residents=%d communities=%d energy_entries=%d quote_requests=%d quotes=%d votes=%d projects=%d\n",
				sum.Providers, sum.Residents, sum.Communities, sum.EnergyEntries,
				sum.QuoteRequests, sum.Quotes, sum.Votes, sum.Projects)
			cmd.Printf("every seeded account uses the password %q\n", seed.DefaultPassword)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&scenario, "scenario", "", "YAML scenario file (overrides the count flags)")
	f.IntVar(&opts.Communities, "communities", 4, "number of generated communities")
	f.IntVar(&opts.MembersPerCommunity, "members", 5, "members per generated community, admin included")
	f.IntVar(&opts.Providers, "providers", 3, "number of generated solar providers")
	f.BoolVar(&opts.ShouldClean, "clean", false, "delete existing data first")
	f.BoolVar(&opts.SkipBcrypt, "fast", false, "store the demo password unhashed (login will not work)")
	f.BoolVar(&opts.DryRun, "dry-run", false, "validate the scenario without writing")
	f.Int64Var(&opts.RandomSeed, "random-seed", 0, "seed for generated data (0 uses the clock)")
	return cmd
}
