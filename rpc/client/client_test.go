package client_test

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/shop"
	shoptesting "github.com/ValentinKolb/dShop/lib/shop/testing"
	"github.com/ValentinKolb/dShop/rpc/client"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/ValentinKolb/dShop/rpc/serializer"
	"github.com/ValentinKolb/dShop/rpc/server"
	"github.com/ValentinKolb/dShop/rpc/transport"
	"github.com/ValentinKolb/dShop/rpc/transport/http"
	"github.com/ValentinKolb/dShop/rpc/transport/tcp"
	"github.com/ValentinKolb/dShop/rpc/transport/unix"
)

// shardsPerServer is the number of empty local shards each test server provides
const shardsPerServer = 10

// testTransport bundles everything needed to run a server and clients for one transport
type testTransport struct {
	name      string
	server    func() transport.IRPCServerTransport
	client    func() transport.IRPCClientTransport
	endpoints func(t *testing.T) (listen, dial, network string)
}

func tcpEndpoints(t *testing.T) (string, string, string) {
	addr := freeAddress(t)
	return addr, addr, "tcp"
}

var testTransports = []testTransport{
	{
		name:      "tcp",
		server:    tcp.NewTCPDefaultServerTransport,
		client:    tcp.NewTCPClientTransport,
		endpoints: tcpEndpoints,
	},
	{
		name:   "unix",
		server: unix.NewUnixDefaultServerTransport,
		client: unix.NewUnixClientTransport,
		endpoints: func(t *testing.T) (string, string, string) {
			// socket paths are limited in length, t.TempDir() might be too long
			dir, err := os.MkdirTemp("", "dshop")
			require.NoError(t, err)
			t.Cleanup(func() { _ = os.RemoveAll(dir) })
			path := filepath.Join(dir, "rpc.sock")
			return path, path, "unix"
		},
	},
	{
		name:   "http",
		server: http.NewHttpServerTransport,
		client: http.NewHttpClientTransport,
		endpoints: func(t *testing.T) (string, string, string) {
			addr := freeAddress(t)
			return addr, "http://" + addr, "tcp"
		},
	},
}

var testSerializers = map[string]func() serializer.IRPCSerializer{
	"json":   serializer.NewJSONSerializer,
	"gob":    serializer.NewGOBSerializer,
	"binary": serializer.NewBinarySerializer,
}

// freeAddress returns a local address with a currently unused port
func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().String()
}

// startServer starts an RPC server with shardsPerServer empty local shards (ids 1..n)
// and returns the endpoint clients have to dial
func startServer(t *testing.T, tt testTransport, s serializer.IRPCSerializer) string {
	t.Helper()
	listen, dial, network := tt.endpoints(t)

	config := common.ServerConfig{
		TimeoutSecond: 5,
		Transport: common.ServerTransportConfig{
			Endpoint:       listen,
			WorkersPerConn: 4,
		},
	}
	for i := 1; i <= shardsPerServer; i++ {
		config.Shards = append(config.Shards, common.ServerShard{ShardID: uint64(i), Type: common.ShardTypeLocalIShop})
	}

	srv := server.NewRPCServer(config, tt.server(), s)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Errorf("server did not stop")
		}
	})

	// wait until the server accepts connections
	require.Eventually(t, func() bool {
		conn, err := net.Dial(network, listen)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	return dial
}

func newClient(t *testing.T, tt testTransport, s serializer.IRPCSerializer, endpoint string, shardID uint64) shop.IShop {
	t.Helper()
	tr := tt.client()
	config := common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{endpoint},
			RetryCount:             2,
			ConnectionsPerEndpoint: 2,
		},
	}
	c, err := client.NewRPCShop(shardID, config, tr, s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return c
}

func TestRPCShop(t *testing.T) {
	for _, tt := range testTransports {
		for name, factory := range testSerializers {
			t.Run(fmt.Sprintf("%s_%s", tt.name, name), func(t *testing.T) {
				endpoint := startServer(t, tt, factory())

				var nextShard atomic.Uint64
				shoptesting.RunShopTests(t, "IShop", func(t *testing.T) shop.IShop {
					shardID := nextShard.Add(1)
					require.LessOrEqual(t, shardID, uint64(shardsPerServer), "not enough shards")
					return newClient(t, tt, factory(), endpoint, shardID)
				})
			})
		}
	}
}

func TestUnknownShard(t *testing.T) {
	tt := testTransports[0]
	endpoint := startServer(t, tt, serializer.NewBinarySerializer())
	c := newClient(t, tt, serializer.NewBinarySerializer(), endpoint, 999)

	_, err := c.GetProducts()
	require.Error(t, err)
	assert.Equal(t, shop.RetCInternalError, shop.CodeOf(err))
	assert.Contains(t, err.Error(), "shard 999 not found")
}

func TestConcurrentClients(t *testing.T) {
	tt := testTransports[0]
	endpoint := startServer(t, tt, serializer.NewBinarySerializer())
	c := newClient(t, tt, serializer.NewBinarySerializer(), endpoint, 1)

	const workers = 8
	const perWorker = 25

	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			for i := 0; i < perWorker; i++ {
				name := fmt.Sprintf("product-%d-%d", w, i)
				if _, err := c.CreateProduct(shoptesting.SampleProduct(name, "1.00", 1)); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}(w)
	}
	for w := 0; w < workers; w++ {
		require.NoError(t, <-errs)
	}

	products, err := c.GetProducts()
	require.NoError(t, err)
	assert.Len(t, products, workers*perWorker)
}
