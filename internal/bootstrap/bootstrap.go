package bootstrap

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	labelinginadapter "carepanion/internal/modules/labeling/adapter/in"
	labelingoutadapter "carepanion/internal/modules/labeling/adapter/out"
	labelingservice "carepanion/internal/modules/labeling/service"
	labelingusecase "carepanion/internal/modules/labeling/usecase"
	profileinadapter "carepanion/internal/modules/profile/adapter/in"
	profileoutadapter "carepanion/internal/modules/profile/adapter/out"
	profileservice "carepanion/internal/modules/profile/service"
	profileusecase "carepanion/internal/modules/profile/usecase"
	sessioninadapter "carepanion/internal/modules/session/adapter/in"
	sessionoutadapter "carepanion/internal/modules/session/adapter/out"
	sessionin "carepanion/internal/modules/session/port/in"
	sessionservice "carepanion/internal/modules/session/service"
	sessionusecase "carepanion/internal/modules/session/usecase"
	walletinadapter "carepanion/internal/modules/wallet/adapter/in"
	walletoutadapter "carepanion/internal/modules/wallet/adapter/out"
	walletservice "carepanion/internal/modules/wallet/service"
	walletusecase "carepanion/internal/modules/wallet/usecase"
	"carepanion/internal/platform/clock"
	"carepanion/internal/platform/config"
	"carepanion/internal/platform/httpapi"
	"carepanion/internal/platform/id"
	uiapp "carepanion/internal/ui/app"
	"carepanion/internal/ui/theme"
)

type App struct {
	Config config.Config
	Logger *zap.Logger

	SessionCLI  sessioninadapter.CLIHandler
	ProfileCLI  profileinadapter.CLIHandler
	LabelingCLI labelinginadapter.CLIHandler
	LabelingTUI labelinginadapter.TUIHandler
	WalletCLI   walletinadapter.CLIHandler

	closers []func() error
}

func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.SystemClock{}

	// The client needs the session's token and the session needs the
	// client, so the token source reads the interactor once it exists.
	var sessionUC sessionin.Usecase
	tokens := httpapi.TokenFunc(func(ctx context.Context) (string, error) {
		if sessionUC == nil {
			return "", nil
		}
		return sessionUC.Token(ctx)
	})
	client := httpapi.New(cfg.API.BaseURL, cfg.API.Timeout, tokens, id.UUID{}, logger.Named("http"))

	profileUC := profileusecase.NewInteractor(profileservice.NewProfileService(
		profileoutadapter.NewHTTPGateway(client),
		logger.Named("profile"),
	))

	walletUC := walletusecase.NewInteractor(walletservice.NewWalletService(
		walletoutadapter.NewFileManifestStore(cfg.WalletManifestPath),
		walletoutadapter.NewPluginLauncher(logger.Named("wallet")),
		logger.Named("wallet"),
	))

	sessionUC = sessionusecase.NewInteractor(
		sessionservice.NewSessionService(
			clk,
			sessionoutadapter.NewHTTPAuthenticator(client),
			sessionoutadapter.NewFileCredentialStore(cfg.CredentialsPath),
			cfg.Session.MinIdentityLength,
			logger.Named("session"),
		),
		profileUC,
		walletUC,
		sessionusecase.Options{
			VerifyProfileOnRestore: cfg.Session.VerifyProfileOnRestore,
			DefaultWalletProvider:  cfg.Wallet.DefaultProvider,
		},
		logger.Named("session"),
	)

	history, err := labelingoutadapter.NewSQLiteHistory(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open label history: %w", err)
	}
	backend := labelingoutadapter.NewHTTPBackend(client)
	labelingUC := labelingusecase.NewController(
		labelingservice.NewLabelingService(
			clk,
			backend,
			backend,
			history,
			labelingoutadapter.NewExternalPlayer(cfg.Player.Command),
			logger.Named("labeling"),
		),
		logger.Named("labeling"),
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		SessionCLI:  sessioninadapter.NewCLIHandler(sessionUC),
		ProfileCLI:  profileinadapter.NewCLIHandler(profileUC),
		LabelingCLI: labelinginadapter.NewCLIHandler(labelingUC),
		LabelingTUI: labelinginadapter.NewTUIHandler(labelingUC),
		WalletCLI:   walletinadapter.NewCLIHandler(walletUC),
		closers:     []func() error{history.Close},
	}, nil
}

// Close releases the history database and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	th, err := theme.ByName(app.Config.UI.Theme)
	if err != nil {
		return err
	}
	model := uiapp.NewModel(app.SessionCLI, app.ProfileCLI, app.LabelingTUI, uiapp.Options{
		Theme:             th,
		MinIdentityLength: app.Config.Session.MinIdentityLength,
		WalletProvider:    app.Config.Wallet.DefaultProvider,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
