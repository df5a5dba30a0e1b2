package utils

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// Listen binds the gRPC server to the port and serves it on a
// background goroutine. It returns the serve error channel plus two
// closers: a hard stop and a graceful one that drains in-flight calls.
func Listen(s *grpc.Server, listenPort int, log logger.Logger) (chan error, func(), func(), error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", listenPort)) //nolint:noctx // listener lifetime is owned by the gRPC server
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to listen on port %d: %w", listenPort, err)
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("Starting gRPC listener", logger.StringField("address", lis.Addr().String()))
		errs <- s.Serve(lis)
	}()

	stop := func() {
		log.Info("Stopping gRPC listener")
		s.Stop()
	}
	gracefulStop := func() {
		log.Info("Draining gRPC listener")
		s.GracefulStop()
	}
	return errs, stop, gracefulStop, nil
}
