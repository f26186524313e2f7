package async

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Lines delivers every line read from r, without the newline, until r ends or done is
// closed.
func Lines(r io.Reader, done <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case out <- strings.TrimRight(scanner.Text(), "\r"):
			case <-done:
				return
			}
		}
	}()
	return out
}

// EnterKey is closed once a line is read from stdin or stdin ends.
func EnterKey() <-chan struct{} {
	done := make(chan struct{})
	lines := Lines(os.Stdin, done)
	return Job(func() {
		<-lines
		close(done)
	})
}
