package utils

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// Raw PCM files hold little endian samples with no header.

type Sample interface {
	~int16 | ~int32 | ~float32 | ~float64
}

func ReadPCM[T Sample](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	var zero T
	size := binary.Size(zero)
	if info.Size()%int64(size) != 0 {
		return nil, fmt.Errorf("file size %d is not a multiple of %d", info.Size(), size)
	}
	data := make([]T, info.Size()/int64(size))
	if err := binary.Read(bufio.NewReader(file), binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func WritePCM[T Sample](filename string, data []T) error {
	w, err := CreatePCM[T](filename)
	if err != nil {
		return err
	}
	if err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// PCMWriter appends blocks of samples to a raw PCM file.
type PCMWriter[T Sample] struct {
	file *os.File
	buf  *bufio.Writer
	n    int
}

func CreatePCM[T Sample](filename string) (*PCMWriter[T], error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &PCMWriter[T]{file: file, buf: bufio.NewWriter(file)}, nil
}

func (w *PCMWriter[T]) Write(samples []T) error {
	if err := binary.Write(w.buf, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	w.n += len(samples)
	return nil
}

// Samples returns the number of samples written so far.
func (w *PCMWriter[T]) Samples() int {
	return w.n
}

func (w *PCMWriter[T]) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
