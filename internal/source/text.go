package source

import (
	"context"
	"io"
	"os"
	"strings"
)

// TextLoader reads plain text, dropping bytes that are not valid UTF-8
type TextLoader struct {
	maxBytes int64
}

// NewTextLoader creates a text loader. maxBytes <= 0 reads the whole file.
func NewTextLoader(maxBytes int64) *TextLoader {
	return &TextLoader{maxBytes: maxBytes}
}

// Load reads the file as text
func (l *TextLoader) Load(ctx context.Context, path string) (Result, error) {
	data, err := readCapped(path, l.maxBytes)
	if err != nil {
		return Result{Method: "text"}, err
	}
	return Result{
		Text:   strings.ToValidUTF8(string(data), ""),
		Method: "text",
		Pages:  1,
	}, nil
}

func readCapped(path string, max int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if max > 0 {
		r = io.LimitReader(f, max)
	}
	return io.ReadAll(r)
}
