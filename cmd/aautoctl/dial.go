package main

import (
	"fmt"
	"net"

	"github.com/hashicorp/go-multierror"
)

// dialFirst tries each address in turn and returns the first successful
// connection. If every candidate fails, it returns a single combined error
// listing every attempt, which is far more useful to an operator plugging
// a phone in over an unfamiliar network than only the last failure.
func dialFirst(addrs []string) (net.Conn, error) {
	var errs *multierror.Error

	for _, addr := range addrs {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn, nil
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", addr, err))
	}

	return nil, errs.ErrorOrNil()
}
