package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	profiledto "carepanion/internal/modules/profile/dto"
	profilein "carepanion/internal/modules/profile/port/in"
	"carepanion/internal/modules/session/domain"
	sessiondto "carepanion/internal/modules/session/dto"
	sessionin "carepanion/internal/modules/session/port/in"
	"carepanion/internal/modules/session/service"
	walletin "carepanion/internal/modules/wallet/port/in"
	apperrors "carepanion/internal/platform/errors"

	"go.uber.org/zap"
)

type Options struct {
	VerifyProfileOnRestore bool
	DefaultWalletProvider  string
}

type Interactor struct {
	svc     *service.SessionService
	profile profilein.Usecase
	wallet  walletin.Usecase
	opts    Options
	logger  *zap.Logger

	mu      sync.Mutex
	machine *domain.Machine
	conn    walletin.Connection

	// token is guarded separately so backend calls made while mu is held
	// can still authenticate.
	tokenMu sync.RWMutex
	token   string
}

func NewInteractor(svc *service.SessionService, profile profilein.Usecase, wallet walletin.Usecase, opts Options, logger *zap.Logger) sessionin.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		svc:     svc,
		profile: profile,
		wallet:  wallet,
		opts:    opts,
		logger:  logger,
		machine: domain.NewMachine(),
	}
}

func (i *Interactor) Login(ctx context.Context, identity string) (sessiondto.StateOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.login(ctx, identity); err != nil {
		return i.output(""), err
	}
	return i.output(""), nil
}

func (i *Interactor) LoginWithWallet(ctx context.Context, provider string) (sessiondto.StateOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.machine.Step() != domain.StepLoggedOut {
		return i.output(""), fmt.Errorf("%w: already %s, log out first", apperrors.ErrInvalidTransition, i.machine.Step())
	}
	if i.wallet == nil {
		return i.output(""), fmt.Errorf("wallet providers are not configured")
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = i.opts.DefaultWalletProvider
	}
	if provider == "" {
		return i.output(""), apperrors.Validation("wallet provider is required")
	}

	conn, err := i.wallet.Open(ctx, provider)
	if err != nil {
		return i.output(""), fmt.Errorf("open wallet %s: %w", provider, err)
	}
	identity, err := conn.GetIdentity(ctx)
	if err == nil {
		err = i.login(ctx, identity)
	}
	if err != nil {
		if derr := conn.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			i.logger.Warn("wallet disconnect failed", zap.String("provider", provider), zap.Error(derr))
		}
		return i.output(""), err
	}
	i.conn = conn
	return i.output(""), nil
}

func (i *Interactor) CompleteProfile(ctx context.Context, input profiledto.SetupInput) (sessiondto.StateOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.machine.Step() != domain.StepProfilePending {
		return i.output(""), fmt.Errorf("%w: profile can only be completed from %s, current step is %s",
			apperrors.ErrInvalidTransition, domain.StepProfilePending, i.machine.Step())
	}
	if _, err := i.profile.Setup(ctx, input); err != nil {
		return i.output(""), err
	}
	if err := i.machine.ProfileCompleted(); err != nil {
		return i.output(""), err
	}
	return i.output(""), nil
}

// Logout always ends in logged_out. A storage failure is still reported.
func (i *Interactor) Logout(ctx context.Context) (sessiondto.StateOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var errs []error
	if i.conn != nil {
		if err := i.conn.Disconnect(ctx); err != nil {
			i.logger.Warn("wallet disconnect failed", zap.Error(err))
		}
		i.conn = nil
	}
	if err := i.svc.Forget(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear credentials: %w", err))
	}
	i.setToken("")
	i.machine.LoggedOut()
	i.logger.Info("logged out")
	return i.output(""), errors.Join(errs...)
}

// Restore resumes from stored credentials. With profile verification on,
// an expired token logs out and an unreachable backend trusts the store.
func (i *Interactor) Restore(ctx context.Context) (sessiondto.StateOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.machine.Step() != domain.StepLoggedOut {
		return i.output(""), nil
	}
	stored, err := i.svc.Stored(ctx)
	if errors.Is(err, apperrors.ErrNoSession) {
		return i.output(""), nil
	}
	if err != nil {
		return i.output(""), fmt.Errorf("restore session: %w", err)
	}
	i.setToken(stored.AccessToken)

	step := domain.StepLabeling
	notice := ""
	if i.opts.VerifyProfileOnRestore && i.profile != nil {
		current, err := i.profile.Get(ctx)
		switch {
		case err == nil && !current.Complete:
			step = domain.StepProfilePending
		case err == nil:
		case errors.Is(err, apperrors.ErrAuth):
			i.logger.Info("stored session rejected", zap.Error(err))
			if ferr := i.svc.Forget(ctx); ferr != nil {
				i.logger.Warn("clear credentials failed", zap.Error(ferr))
			}
			i.setToken("")
			return i.output("session expired, please log in again"), nil
		default:
			i.logger.Warn("profile check skipped", zap.Error(err))
			notice = "could not verify profile, using saved session"
		}
	}
	stored.IsNewUser = step == domain.StepProfilePending
	if err := i.machine.Restored(stored, step); err != nil {
		return i.output(""), err
	}
	return i.output(notice), nil
}

func (i *Interactor) Current(_ context.Context) sessiondto.StateOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.output("")
}

func (i *Interactor) Token(ctx context.Context) (string, error) {
	i.tokenMu.RLock()
	token := i.token
	i.tokenMu.RUnlock()
	if token != "" {
		return token, nil
	}
	stored, err := i.svc.Stored(ctx)
	if errors.Is(err, apperrors.ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return stored.AccessToken, nil
}

func (i *Interactor) login(ctx context.Context, identity string) error {
	if i.machine.Step() != domain.StepLoggedOut {
		return fmt.Errorf("%w: already %s, log out first", apperrors.ErrInvalidTransition, i.machine.Step())
	}
	session, err := i.svc.Authenticate(ctx, identity)
	if err != nil {
		return err
	}
	i.setToken(session.AccessToken)
	return i.machine.LoggedIn(session)
}

func (i *Interactor) setToken(token string) {
	i.tokenMu.Lock()
	i.token = token
	i.tokenMu.Unlock()
}

func (i *Interactor) output(notice string) sessiondto.StateOutput {
	out := sessiondto.StateOutput{Step: string(i.machine.Step()), Notice: notice}
	if session, ok := i.machine.Session(); ok {
		out.IdentityRef = session.IdentityRef
		out.ShortIdentity = domain.ShortIdentity(session.IdentityRef)
		out.TokenBalance = session.TokenBalance
		out.IsNewUser = session.IsNewUser
	}
	return out
}
