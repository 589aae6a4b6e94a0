package messagebustest

import "time"

type ServerOpts interface {
	apply(s *Server)
}

type serverOptFn func(s *Server)

func (opt serverOptFn) apply(s *Server) {
	opt(s)
}

// WithHoldDuration sets how long a long poll is held open when there is
// nothing to deliver
func WithHoldDuration(hold time.Duration) ServerOpts {
	return serverOptFn(func(s *Server) {
		s.hold = hold
	})
}

// WithFailures makes the first n requests fail with a 500
func WithFailures(n int) ServerOpts {
	return serverOptFn(func(s *Server) {
		s.failures = n
	})
}
