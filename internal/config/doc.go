// Package config loads node installer settings.
//
// Settings describe one cosmos node: where its home directory is, which
// ports its services listen on, how it prunes and syncs, and which of its
// endpoints are published through Caddy. They are read from HCL or YAML
// and layered over built-in defaults, so a settings file only needs the
// values that differ.
//
// # Formats
//
// HCL (node.hcl):
//
//	node {
//	  chain_id    = "cosmoshub-4"
//	  binary_name = "gaiad"
//	  node_home   = "${env.HOME}/.gaia"
//	}
//
//	ports {
//	  rpc = 36657
//	}
//
//	caddy {
//	  domain     = "example.com"
//	  expose_rpc = true
//	}
//
// The `env` object exposes the process environment to expressions.
//
// YAML uses the same block and attribute names:
//
//	node:
//	  chain_id: cosmoshub-4
//	  node_home: /root/.gaia
//	ports:
//	  rpc: 36657
//
// # Validation
//
// [Settings.Validate] returns a [ValidationErrors] collection rather than
// stopping at the first problem.
package config
