// Command envwallet is a reference wallet provider. It reads the wallet
// address from CAREPANION_WALLET_ADDRESS when asked to connect.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	walletrpc "carepanion/internal/modules/wallet/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

const envAddress = "CAREPANION_WALLET_ADDRESS"

type server struct {
	mu      sync.Mutex
	address string
}

func (s *server) GetMetadata(_ context.Context, _ *walletrpc.Empty) (*walletrpc.Metadata, error) {
	return &walletrpc.Metadata{Name: "envwallet", Version: "1.0.0", Chain: "solana"}, nil
}

func (s *server) Connect(_ context.Context, _ *walletrpc.Empty) (*walletrpc.ConnectResponse, error) {
	address := strings.TrimSpace(os.Getenv(envAddress))
	if address == "" {
		return nil, fmt.Errorf("%s is not set", envAddress)
	}
	s.mu.Lock()
	s.address = address
	s.mu.Unlock()
	return &walletrpc.ConnectResponse{Connected: true}, nil
}

func (s *server) GetIdentity(_ context.Context, _ *walletrpc.Empty) (*walletrpc.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == "" {
		return nil, fmt.Errorf("wallet is not connected")
	}
	return &walletrpc.Identity{Address: s.address}, nil
}

func (s *server) Disconnect(_ context.Context, _ *walletrpc.Empty) (*walletrpc.Empty, error) {
	s.mu.Lock()
	s.address = ""
	s.mu.Unlock()
	return &walletrpc.Empty{}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: walletrpc.HandshakeConfig,
		Plugins:         walletrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
