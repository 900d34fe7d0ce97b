package network

import "context"

// NetworkManager runs the listeners feeding the ClientManager. The
// ClientManager itself serves as the game's Connections and the
// outbound worker's Deliverer.
type NetworkManager struct {
	ClientManager *ClientManager
	WSServer      *WSServer
}

type NewNetworkManagerOptions struct {
	ClientManager *ClientManager
	// Submitter receives the turns read from clients.
	Submitter   Submitter
	WSPort      int
	WSServerTLS *TLSConfig
}

func NewNetworkManager(options NewNetworkManagerOptions) *NetworkManager {
	return &NetworkManager{
		ClientManager: options.ClientManager,
		WSServer: NewWSServer(NewWSServerOptions{
			Port:          options.WSPort,
			TLS:           options.WSServerTLS,
			ClientManager: options.ClientManager,
			Submitter:     options.Submitter,
		}),
	}
}

func (n *NetworkManager) Start(ctx context.Context) {
	go n.WSServer.Start(ctx)
}
