package out

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	walletrpc "carepanion/internal/modules/wallet/adapter/out/rpc"
	"carepanion/internal/modules/wallet/domain"
	walletout "carepanion/internal/modules/wallet/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

type PluginLauncher struct {
	logger *zap.Logger
}

func NewPluginLauncher(logger *zap.Logger) walletout.Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginLauncher{logger: logger}
}

func (l *PluginLauncher) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	client, closeFn, err := l.start(manifest)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	if meta.Name == "" {
		return fmt.Errorf("wallet provider %s reported empty metadata", manifest.Name)
	}
	return nil
}

func (l *PluginLauncher) Launch(_ context.Context, manifest domain.Manifest) (walletout.Provider, error) {
	client, closeFn, err := l.start(manifest)
	if err != nil {
		return nil, err
	}
	return &pluginProvider{name: manifest.Name, rpc: client, kill: closeFn}, nil
}

func (l *PluginLauncher) start(manifest domain.Manifest) (walletrpc.WalletProviderClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  walletrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          walletrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "wallet." + manifest.Name,
			Output: zap.NewStdLog(l.logger.Named("wallet")).Writer(),
			Level:  hclog.Warn,
		}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start wallet provider: %w", err)
	}
	raw, err := rpcClient.Dispense(walletrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense wallet provider: %w", err)
	}
	typed, ok := raw.(walletrpc.WalletProviderClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("wallet rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, defaultCallTimeout)
}

// pluginProvider owns one plugin process for the lifetime of a connection.
type pluginProvider struct {
	name string
	rpc  walletrpc.WalletProviderClient
	kill func()
	once sync.Once
}

func (p *pluginProvider) Connect(ctx context.Context) error {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	resp, err := p.rpc.Connect(callCtx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if !resp.Connected {
		return domain.ErrNotConnected
	}
	return nil
}

func (p *pluginProvider) GetIdentity(ctx context.Context) (string, error) {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	identity, err := p.rpc.GetIdentity(callCtx)
	if err != nil {
		return "", fmt.Errorf("get identity: %w", err)
	}
	return identity.Address, nil
}

func (p *pluginProvider) Disconnect(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		callCtx, cancel := callContext(ctx)
		defer cancel()
		if rpcErr := p.rpc.Disconnect(callCtx); rpcErr != nil {
			err = fmt.Errorf("disconnect %s: %w", p.name, rpcErr)
		}
		p.kill()
	})
	return err
}
