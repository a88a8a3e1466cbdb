package client

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/ValentinKolb/dShop/rpc/serializer"
	"github.com/ValentinKolb/dShop/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCShop with composition pattern
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// Error responses are returned as *shop.Error with the code sent by the server.
// This method also checks if the type of the response is the expected type
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("RPC IShopAdapter - Error: %s", err)
	}

	// Check if the response is an error response
	if err := resp.ShopError(); err != nil {
		return nil, err
	}
	if resp.MsgType == common.MsgTError {
		return nil, fmt.Errorf("RPC IShopAdapter - Error response without message")
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC IShopAdapter - Unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}

// invoke sends a request and decodes the JSON result of the response into a value of type R
func invoke[R any](a *rpcClientAdapter, req *common.Message) (R, error) {
	var result R
	resp, err := invokeRPCRequest(a.shardId, req, a.transport, a.serializer)
	if err != nil {
		return result, err
	}
	if len(resp.Value) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Value, &result); err != nil {
		return result, fmt.Errorf("RPC IShopAdapter - failed to decode %s result: %w", req.MsgType, err)
	}
	return result, nil
}

// invokeOk sends a request whose response only carries the Ok flag
func invokeOk(a *rpcClientAdapter, req *common.Message) (bool, error) {
	resp, err := invokeRPCRequest(a.shardId, req, a.transport, a.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}
