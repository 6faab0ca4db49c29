package node

import (
	"fmt"

	"grimm.is/nodecfg/internal/config"
	"grimm.is/nodecfg/internal/merge"
)

// Identity names the node in the Caddyfile header comment.
func Identity(s *config.Settings) string {
	switch {
	case s.Node.ChainID != "":
		return s.Node.ChainID
	case s.Node.BinaryName != "":
		return s.Node.BinaryName
	default:
		return "Cosmos Node"
	}
}

// CaddyHeader is the comment written above appended site blocks.
func CaddyHeader(s *config.Settings) string {
	return "# " + Identity(s)
}

// CaddyBlocks returns the site blocks for every exposed endpoint.
func CaddyBlocks(s *config.Settings) []merge.Block {
	var blocks []merge.Block
	d := s.Caddy.Domain

	if s.Caddy.ExposeRPC {
		blocks = append(blocks, proxyBlock("rpc."+d, s.Ports.RPC))
	}
	if s.Caddy.ExposeAPI {
		blocks = append(blocks, proxyBlock("api."+d, s.Ports.API))
	}
	if s.Caddy.ExposeGRPC {
		site := "grpc." + d
		blocks = append(blocks, merge.Block{
			Key: site,
			Body: fmt.Sprintf(`%s {
    reverse_proxy {
        to h2c://localhost:%d
        transport http {
            versions h2c 2
        }
    }
}
`, site, s.Ports.GRPC),
		})
	}
	if s.JSONRPCExposed() {
		blocks = append(blocks, proxyBlock("jsonrpc."+d, s.Ports.JSONRPC))
	}

	return blocks
}

func proxyBlock(site string, port int) merge.Block {
	return merge.Block{
		Key:  site,
		Body: fmt.Sprintf("%s {\n    reverse_proxy localhost:%d\n}\n", site, port),
	}
}
