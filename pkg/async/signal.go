package async

// Signal is a one shot broadcast. Signal arms it, Notify fires it at most once.
type Signal[T any] chan T

// Notify closes the channel, waking every waiter. It reports whether this call fired it.
func (s *Signal[T]) Notify() bool {
	if *s != nil {
		select {
		case <-*s:
		default:
			close(*s)
			return true
		}
	}
	return false
}

func (s *Signal[T]) Signal() <-chan T {
	*s = make(chan T)
	return *s
}

func (s *Signal[T]) Wait() T {
	return <-s.Signal()
}
