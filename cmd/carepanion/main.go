package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carepanion/internal/bootstrap"
	sessiondto "carepanion/internal/modules/session/dto"
	"carepanion/internal/platform/config"
	"carepanion/internal/platform/logging"
	"carepanion/internal/ui/prompt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	dataDir string
	apiURL  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "carepanion",
		Short:         "Label audio clips for the Carepanion dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", config.DefaultDataDir(), "directory for config, credentials and history")
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "backend base URL (overrides config)")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newLabelCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newWalletCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.New(opts.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(opts.apiURL) != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	return cfg, nil
}

// loadApp wires the application. The TUI logs to the log file since the
// alternate screen owns the terminal; other commands log to stderr only at
// debug level.
func loadApp(opts *rootOptions, tui bool) (*bootstrap.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	switch {
	case tui:
		if logger, err = logging.New(cfg.Log.Level, cfg.LogPath); err != nil {
			return nil, err
		}
	case strings.EqualFold(cfg.Log.Level, "debug"):
		if logger, err = logging.New(cfg.Log.Level, ""); err != nil {
			return nil, err
		}
	}
	return bootstrap.New(cfg, logger)
}

// restore loads the stored session and fails unless it is at one of steps.
func restore(ctx context.Context, app *bootstrap.App, steps ...string) (sessiondto.StateOutput, error) {
	state, err := app.SessionCLI.Status(ctx)
	if err != nil {
		return state, err
	}
	for _, s := range steps {
		if state.Step == s {
			return state, nil
		}
	}
	switch state.Step {
	case sessiondto.StepLoggedOut:
		if state.Notice != "" {
			return state, fmt.Errorf("%s", state.Notice)
		}
		return state, fmt.Errorf("not logged in, run: carepanion login <wallet-address>")
	case sessiondto.StepProfilePending:
		return state, fmt.Errorf("profile incomplete, run: carepanion profile setup --interactive")
	default:
		return state, fmt.Errorf("unexpected session step %s", state.Step)
	}
}

func printState(cmd *cobra.Command, state sessiondto.StateOutput) {
	if state.Notice != "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), state.Notice)
	}
	if state.Step == sessiondto.StepLoggedOut {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "step=logged_out")
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "step=%s identity=%s new_user=%t\n", state.Step, state.ShortIdentity, state.IsNewUser)
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the labeling terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(opts, true)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var provider string
	var interactive bool
	cmd := &cobra.Command{
		Use:   "login [wallet-address]",
		Short: "Log in with a wallet address or a wallet provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()

			identity := ""
			if len(args) == 1 {
				identity = args[0]
			}
			switch {
			case identity != "" || provider != "":
			case interactive:
				if identity, err = prompt.Identity(ctx, prompt.NewSurveyDriver(), app.Config.Session.MinIdentityLength); err != nil {
					return err
				}
			case app.Config.Wallet.DefaultProvider != "":
				provider = app.Config.Wallet.DefaultProvider
			default:
				return fmt.Errorf("a wallet address, --provider or --interactive is required")
			}

			if _, err := app.SessionCLI.Status(ctx); err != nil {
				return err
			}
			state, err := app.SessionCLI.Login(ctx, identity, provider)
			if err != nil {
				return err
			}
			printState(cmd, state)
			if state.Step == sessiondto.StepProfilePending {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "welcome! complete your profile: carepanion profile setup --interactive")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "wallet provider from wallets.yaml (manual uses the address argument)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for the wallet address")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			state, err := app.SessionCLI.Logout(context.Background())
			if err != nil {
				return err
			}
			printState(cmd, state)
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the restored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			state, err := app.SessionCLI.Status(context.Background())
			if err != nil {
				return err
			}
			printState(cmd, state)
			return nil
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Demographic profile"}

	profile.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the profile stored by the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()
			if _, err := restore(ctx, app, sessiondto.StepProfilePending, sessiondto.StepLabeling); err != nil {
				return err
			}
			p, err := app.ProfileCLI.Show(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wallet: %s\ngender: %s\nage_bracket: %s\nhearing_ability: %s\nnationality: %s\ncomplete: %t\n",
				p.WalletAddress, p.Gender, p.AgeBracket, p.HearingAbility, p.Nationality, p.Complete)
			return nil
		},
	})

	var gender, age, hearing, nationality string
	var interactive bool
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Complete or update the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()
			state, err := restore(ctx, app, sessiondto.StepProfilePending, sessiondto.StepLabeling)
			if err != nil {
				return err
			}
			if interactive {
				in, err := prompt.Profile(ctx, prompt.NewSurveyDriver(), app.ProfileCLI.Options())
				if err != nil {
					return err
				}
				gender, age, hearing, nationality = in.Gender, in.AgeBracket, in.HearingAbility, in.Nationality
			}
			if state.Step == sessiondto.StepProfilePending {
				state, err = app.SessionCLI.CompleteProfile(ctx, gender, age, hearing, nationality)
				if err != nil {
					return err
				}
				printState(cmd, state)
				return nil
			}
			p, err := app.ProfileCLI.Setup(ctx, gender, age, hearing, nationality)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile updated: %s %s %s %s\n", p.Gender, p.AgeBracket, p.HearingAbility, p.Nationality)
			return nil
		},
	}
	setup.Flags().StringVar(&gender, "gender", "", "gender")
	setup.Flags().StringVar(&age, "age", "", "age bracket, e.g. 70-79")
	setup.Flags().StringVar(&hearing, "hearing", "", "hearing ability")
	setup.Flags().StringVar(&nationality, "nationality", "", "ISO country code")
	setup.Flags().BoolVar(&interactive, "interactive", false, "choose values from menus")
	profile.AddCommand(setup)

	profile.AddCommand(&cobra.Command{
		Use:   "options",
		Short: "List accepted profile values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			o := app.ProfileCLI.Options()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "gender: %s\n", strings.Join(o.Genders, ", "))
			_, _ = fmt.Fprintf(out, "age: %s\n", strings.Join(o.AgeBrackets, ", "))
			_, _ = fmt.Fprintf(out, "hearing: %s\n", strings.Join(o.HearingAbilities, ", "))
			codes := make([]string, len(o.Nationalities))
			for i, c := range o.Nationalities {
				codes[i] = c.Code + " (" + c.Name + ")"
			}
			_, _ = fmt.Fprintf(out, "nationality: %s\n", strings.Join(codes, ", "))
			return nil
		},
	})
	return profile
}

func newLabelCmd(opts *rootOptions) *cobra.Command {
	label := &cobra.Command{Use: "label", Short: "Fetch and label audio clips"}

	label.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Show the next clip waiting for a label",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()
			state, err := restore(ctx, app, sessiondto.StepLabeling)
			if err != nil {
				return err
			}
			form, err := app.LabelingCLI.Next(ctx, state.IdentityRef)
			if form.Exhausted {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no more clips to label")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id=%d duration=%ds url=%s\n", form.Item.ID, form.Item.DurationSeconds, form.Item.SourceURL)
			return nil
		},
	})

	var audioID int64
	var comfort, clarity, rate, empathy, notes string
	var interactive, play bool
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Rate the next clip and submit the label",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()
			state, err := restore(ctx, app, sessiondto.StepLabeling)
			if err != nil {
				return err
			}

			ratings := map[string]string{}
			if interactive {
				form, err := app.LabelingCLI.Next(ctx, state.IdentityRef)
				if form.Exhausted {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no more clips to label")
					return nil
				}
				if err != nil {
					return err
				}
				audioID = form.Item.ID
				if play {
					if err := app.LabelingTUI.Play(ctx); err != nil {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "playback: %v\n", err)
					}
				}
				if ratings, err = prompt.Ratings(ctx, prompt.NewSurveyDriver(), *form.Item, app.LabelingCLI.Options()); err != nil {
					return err
				}
			} else {
				for field, v := range map[string]string{
					"comfort_level":     comfort,
					"clarity":           clarity,
					"speaking_rate":     rate,
					"perceived_empathy": empathy,
					"notes":             notes,
				} {
					if v != "" {
						ratings[field] = v
					}
				}
			}

			out, err := app.LabelingCLI.Submit(ctx, state.IdentityRef, audioID, ratings)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "label %d %s", out.Receipt.LabelID, out.Receipt.Status)
			if out.Receipt.TransactionSignature != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " tx=%s", out.Receipt.TransactionSignature)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	submit.Flags().Int64Var(&audioID, "audio-id", 0, "expected clip id (refuses to label a different clip)")
	submit.Flags().StringVar(&comfort, "comfort", "", "comfort level 1-5")
	submit.Flags().StringVar(&clarity, "clarity", "", "clarity 1-5")
	submit.Flags().StringVar(&rate, "rate", "", "speaking rate Slow|Medium|Fast")
	submit.Flags().StringVar(&empathy, "empathy", "", "perceived empathy Low|Medium|High")
	submit.Flags().StringVar(&notes, "notes", "", "free-text notes")
	submit.Flags().BoolVar(&interactive, "interactive", false, "rate the clip from menus")
	submit.Flags().BoolVar(&play, "play", false, "with --interactive, play the clip first")
	label.AddCommand(submit)
	return label
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List labels submitted from this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()
			state, err := restore(ctx, app, sessiondto.StepProfilePending, sessiondto.StepLabeling)
			if err != nil {
				return err
			}
			hist, err := app.LabelingCLI.History(ctx, state.IdentityRef, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%d labels on this device\n", hist.Total)
			for _, e := range hist.Entries {
				_, _ = fmt.Fprintf(out, "%s\tlabel=%d\taudio=%d\tcomfort=%d\tclarity=%d\trate=%s\tempathy=%s\n",
					e.SubmittedAt.Format("2006-01-02 15:04"), e.LabelID, e.AudioID, e.ComfortLevel, e.Clarity, e.SpeakingRate, e.PerceivedEmpathy)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

func newWalletCmd(opts *rootOptions) *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "Wallet provider plugins"}

	wallet.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List providers declared in wallets.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			providers, err := app.WalletCLI.List(context.Background())
			if err != nil {
				return err
			}
			if len(providers) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no wallet providers (declare them in %s)\n", app.Config.WalletManifestPath)
				return nil
			}
			for _, p := range providers {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s\n", p.Name, p.Version, p.Enabled, p.Binary)
			}
			return nil
		},
	})

	wallet.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check provider binaries, checksums and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, false)
			if err != nil {
				return err
			}
			defer app.Close()
			results, err := app.WalletCLI.Doctor(context.Background())
			if err != nil {
				return err
			}
			for _, r := range results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
				if r.Error != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	})
	return wallet
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out, err := cfg.Render()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# data dir: %s\n%s", cfg.DataDir, out)
			return nil
		},
	})
	return cfgCmd
}
