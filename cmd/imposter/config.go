package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/playperu/imposter/internal/imposter"
)

type localConfig struct {
	players    int
	imposters  int
	category   string
	mode       string
	shuffle    bool
	seed       uint64
	clearLines int
}

func (c *localConfig) settings() (imposter.Settings, error) {
	s := imposter.DefaultSettings()
	s.PlayerCount = c.players
	s.ImposterCount = c.imposters
	s.Category = c.category
	s.TurnMode = imposter.TurnMode(c.mode)
	s.ImagesEnabled = false
	if err := s.Validate(); err != nil {
		return imposter.Settings{}, err
	}
	return s, nil
}

func contextWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "imposter",
		Short:        "Word-based social deduction for a group sharing one device.",
		Version:      releaseVersion,
		SilenceUsage: true,
	}
	cmd.AddCommand(newLocalCmd(), newCategoriesCmd())
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("imposter v{{.Version}}\n")
	return cmd
}

// bindEnv lets every flag be set as IMPOSTER_<FLAG>, e.g. IMPOSTER_PLAYERS=8.
// Flags given on the command line win.
func bindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("IMPOSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newLocalCmd() *cobra.Command {
	cfg := &localConfig{}
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Deal a round and pass the device around",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd.Flags())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := cfg.settings()
			if err != nil {
				return err
			}
			return playLocal(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), s, cfg)
		},
	}

	d := imposter.DefaultSettings()
	fs := cmd.Flags()
	fs.IntVarP(&cfg.players, "players", "p", d.PlayerCount, "number of players, 3-20 (env: IMPOSTER_PLAYERS)")
	fs.IntVarP(&cfg.imposters, "imposters", "i", d.ImposterCount, "number of imposters, 1-3 (env: IMPOSTER_IMPOSTERS)")
	fs.StringVarP(&cfg.category, "category", "c", d.Category, "word category (env: IMPOSTER_CATEGORY)")
	fs.StringVarP(&cfg.mode, "mode", "m", string(d.TurnMode), "turn mode: sequential or free (env: IMPOSTER_MODE)")
	fs.BoolVar(&cfg.shuffle, "shuffle", false, "shuffle card numbers before anyone looks (env: IMPOSTER_SHUFFLE)")
	fs.Uint64Var(&cfg.seed, "seed", 0, "random seed, 0 picks one (env: IMPOSTER_SEED)")
	fs.IntVar(&cfg.clearLines, "clear-lines", 40, "blank lines printed to hide a card (env: IMPOSTER_CLEAR_LINES)")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List word categories",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, c := range imposter.Categories() {
				fmt.Fprintf(out, "%s %-8s %s (%d pairs)\n", c.Emoji, c.Name, c.Label, c.Pairs)
			}
		},
	}
}
