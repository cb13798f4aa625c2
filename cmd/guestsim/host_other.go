//go:build !linux

package main

import "errors"

func openEventfdHost() (demoHost, error) {
	return nil, errors.New("eventfd host is only available on linux")
}
