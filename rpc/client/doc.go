// Package client implements the RPC client of dShop.
// It provides an implementation of the shop.IShop interface that communicates with
// remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a shop served by a remote shard
//   - Integration with the transport and serialization layers
//   - Error handling: errors of the remote shop keep their shop.RetCode
//
// Key Components:
//
//   - NewRPCShop: Factory function that creates a client implementing the shop.IShop
//     interface. This client forwards all operations to remote servers via the configured
//     transport layer.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	// Create shop client
//	s, _ := client.NewRPCShop(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//
//	// Use the shop
//	products, _ := s.SearchProducts("headphones")
//	_, err := s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: products[0].ID, Quantity: 1})
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
