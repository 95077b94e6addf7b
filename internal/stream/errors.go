package stream

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/logistics-globe/core"
	"github.com/signalsfoundry/logistics-globe/kb"
)

var (
	// ErrRouteNotFound is returned when a route id is unknown.
	ErrRouteNotFound = errors.New("route not found")
	// ErrInvalidRequest is returned for malformed request structs.
	ErrInvalidRequest = errors.New("invalid request")
)

// ToStatusError maps globe errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrRouteNotFound),
		errors.Is(err, kb.ErrLocationNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidScene),
		errors.Is(err, core.ErrInvalidCoordinate),
		errors.Is(err, core.ErrInvalidAnimation):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrNoOrigin):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, kb.ErrLocationExists):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
