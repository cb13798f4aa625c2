package main

import (
	"fmt"

	"github.com/Swind/go-guest-runtime/core"
	"github.com/Swind/go-guest-runtime/host"
)

// demoHost is what the demo needs from a host.
type demoHost interface {
	core.Host
	core.TimerSource
	core.Clock
	Close() error
}

type simHost struct {
	*host.Sim
}

func (h simHost) Close() error {
	h.Stop()
	return nil
}

func openHost(kind string) (demoHost, error) {
	switch kind {
	case "sim":
		return simHost{host.NewSim()}, nil
	case "eventfd":
		return openEventfdHost()
	default:
		return nil, fmt.Errorf("unknown host %q", kind)
	}
}
