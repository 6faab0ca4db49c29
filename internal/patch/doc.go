// Package patch rewrites key assignments inside named sections of
// line-oriented configuration files such as cosmos-sdk app.toml and
// cometbft config.toml.
//
// The document is never parsed as a whole. Each line is classified on its
// own, a Tracker follows the current section, and a RuleSet decides which
// assignment lines are replaced. Every other line, including its line
// terminator, is copied through unchanged, and applying the same RuleSet
// twice yields the same output as applying it once.
//
// Basic usage:
//
//	rules := patch.NewRuleSet()
//	rules.Add(patch.Rule{Section: "rpc", Key: "laddr", Value: patch.String("tcp://0.0.0.0:26657")})
//	out, report := patch.Apply(patch.SplitLines(doc), rules)
//
// File wraps Apply with the read, backup and atomic replace steps.
package patch
