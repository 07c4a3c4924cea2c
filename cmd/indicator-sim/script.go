//go:build !tinygo

package main

import (
	"sort"
	"strconv"
	"strings"

	"indicator-go/errcode"
	"indicator-go/services/config"
)

// action is one scripted write: at AtMs into the run, store Value into the
// handle named Target.
type action struct {
	AtMs   uint32
	Target string
	Value  string
}

// parseAction reads "<ms>:<target>=<value>", e.g. "1500:red=off" or
// "200:piezo=oneshot/warning2".
func parseAction(s string) (action, error) {
	at, rest, ok := strings.Cut(s, ":")
	if !ok {
		return action{}, badScript(s, "missing ':'")
	}
	ms, err := strconv.ParseUint(strings.TrimSpace(at), 10, 32)
	if err != nil {
		return action{}, badScript(s, "bad time")
	}
	target, value, err := parseAssign(rest)
	if err != nil {
		return action{}, err
	}
	return action{AtMs: uint32(ms), Target: target, Value: value}, nil
}

func parseAssign(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if !ok || k == "" || v == "" {
		return "", "", badScript(s, "want name=value")
	}
	return k, v, nil
}

// parseScript parses and orders actions. Actions at the same time keep
// their command-line order.
func parseScript(in []string) ([]action, error) {
	out := make([]action, 0, len(in))
	for _, s := range in {
		a, err := parseAction(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AtMs < out[j].AtMs })
	return out, nil
}

// applyInitial rewrites initial values in c from "name=value" overrides.
// Speaker values take the "mode[/sound]" form.
func applyInitial(c *config.Config, overrides []string) error {
	for _, s := range overrides {
		name, value, err := parseAssign(s)
		if err != nil {
			return err
		}
		found := false
		for i := range c.LEDs {
			if c.LEDs[i].Name == name {
				c.LEDs[i].Initial = value
				found = true
			}
		}
		if sp := c.Speaker; sp != nil && sp.Name == name {
			mode, sound, hasSound := strings.Cut(value, "/")
			sp.Mode = mode
			if hasSound {
				sp.Sound = sound
			}
			found = true
		}
		if !found {
			return &errcode.E{C: errcode.UnknownDevice, Op: "initial", Msg: name}
		}
	}
	return c.Validate()
}

func badScript(s, why string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "script", Msg: why + ": " + s}
}
