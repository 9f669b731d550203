// Package rpc is the wire contract between carepanion and wallet provider
// plugins: a hand-registered gRPC service carried over hashicorp/go-plugin
// with a JSON codec, so plugins need no generated protobuf code.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "wallet"
	serviceName       = "carepanion.wallet.v1.WalletProvider"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodConnect     = "/" + serviceName + "/Connect"
	methodGetIdentity = "/" + serviceName + "/GetIdentity"
	methodDisconnect  = "/" + serviceName + "/Disconnect"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CAREPANION_WALLET_PLUGIN",
	MagicCookieValue: "carepanion",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Chain   string `json:"chain"`
}

type ConnectResponse struct {
	Connected bool `json:"connected"`
}

type Identity struct {
	Address string `json:"address"`
}

type WalletProviderServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Connect(ctx context.Context, in *Empty) (*ConnectResponse, error)
	GetIdentity(ctx context.Context, in *Empty) (*Identity, error)
	Disconnect(ctx context.Context, in *Empty) (*Empty, error)
}

type WalletProviderClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Connect(ctx context.Context) (*ConnectResponse, error)
	GetIdentity(ctx context.Context) (*Identity, error)
	Disconnect(ctx context.Context) error
}

type walletProviderClient struct {
	conn *grpc.ClientConn
}

func NewWalletProviderClient(conn *grpc.ClientConn) WalletProviderClient {
	return &walletProviderClient{conn: conn}
}

func (c *walletProviderClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *walletProviderClient) Connect(ctx context.Context) (*ConnectResponse, error) {
	out := &ConnectResponse{}
	if err := c.conn.Invoke(ctx, methodConnect, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *walletProviderClient) GetIdentity(ctx context.Context) (*Identity, error) {
	out := &Identity{}
	if err := c.conn.Invoke(ctx, methodGetIdentity, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *walletProviderClient) Disconnect(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodDisconnect, &Empty{}, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

func RegisterWalletProviderServer(server grpc.ServiceRegistrar, impl WalletProviderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*WalletProviderServer)(nil),
		Methods: []grpc.MethodDesc{
			unaryMethod("GetMetadata", methodGetMetadata, impl.GetMetadata),
			unaryMethod("Connect", methodConnect, impl.Connect),
			unaryMethod("GetIdentity", methodGetIdentity, impl.GetIdentity),
			unaryMethod("Disconnect", methodDisconnect, impl.Disconnect),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/wallet-rpc-v1.proto",
	}, impl)
}

func unaryMethod[Req, Resp any](name, fullMethod string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type")
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl WalletProviderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterWalletProviderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewWalletProviderClient(conn), nil
}

func PluginMap(impl WalletProviderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
