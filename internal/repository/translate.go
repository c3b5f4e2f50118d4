package repository

import (
	"encoding/json"
	"errors"
	"net"
	"net/url"

	"todo/internal/service"
	"todo/internal/todoerr"
)

// translate classifies a raw backend failure. Domain errors raised by a
// backend pass through unchanged.
func translate(err error) error {
	if te, ok := todoerr.As(err); ok {
		return te
	}

	var netErr todoerr.NetworkError
	if errors.As(err, &netErr) {
		return todoerr.NewNetwork(netErr)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, service.ErrMalformed) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return todoerr.NewInvalidData()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return todoerr.NewNetwork(todoerr.NetworkError{Kind: todoerr.InvalidURL})
	}
	var transportErr net.Error
	if errors.As(err, &transportErr) {
		return todoerr.NewNetwork(todoerr.NetworkError{Kind: todoerr.InvalidResponse})
	}

	return todoerr.NewGeneric(err.Error())
}
