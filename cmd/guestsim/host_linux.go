//go:build linux

package main

import "github.com/Swind/go-guest-runtime/host"

func openEventfdHost() (demoHost, error) {
	h, err := host.NewEventfd()
	if err != nil {
		return nil, err
	}
	return h, nil
}
