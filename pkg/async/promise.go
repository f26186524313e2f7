package async

// Promise runs f on its own goroutine. The result is delivered once, and the goroutine
// exits even if nobody reads it.
func Promise[R any](f func() R) <-chan R {
	out := make(chan R, 1)
	go func() {
		out <- f()
	}()
	return out
}

