package cache

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	fileFormat  = "mansh-cache"
	fileVersion = 1
)

// header is the first line of a cache file.
type header struct {
	Format    string `json:"format"`
	Version   int    `json:"version"`
	ModelID   string `json:"model_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Commands  int    `json:"commands"`
}

// entryLine is one command entry; Vectors holds little-endian float32 rows.
type entryLine struct {
	Command    string   `json:"command"`
	Delimiter  string   `json:"delimiter"`
	Dim        int      `json:"dim"`
	Paragraphs []string `json:"paragraphs"`
	Vectors    []byte   `json:"vectors"`
}

// encode writes mc as JSON Lines: a header followed by one line per command,
// sorted by command name.
func encode(w io.Writer, mc *ModelCache) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	names := mc.Names()
	h := header{
		Format:    fileFormat,
		Version:   fileVersion,
		ModelID:   mc.Model,
		CreatedAt: mc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: mc.UpdatedAt.UTC().Format(time.RFC3339),
		Commands:  len(names),
	}
	if err := enc.Encode(h); err != nil {
		return err
	}
	for _, name := range names {
		line, err := toLine(name, mc.Commands[name])
		if err != nil {
			return err
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func toLine(name string, e *Entry) (entryLine, error) {
	if len(e.Paragraphs) != len(e.Vectors) {
		return entryLine{}, fmt.Errorf("%w: command %s has %d paragraphs and %d vectors",
			ErrVectorLengthMismatch, name, len(e.Paragraphs), len(e.Vectors))
	}
	dim := e.Dim()
	flat := make([]float32, 0, len(e.Vectors)*dim)
	for _, v := range e.Vectors {
		if len(v) != dim {
			return entryLine{}, fmt.Errorf("%w: command %s mixes dims %d and %d",
				ErrVectorLengthMismatch, name, dim, len(v))
		}
		flat = append(flat, v...)
	}
	var buf bytes.Buffer
	if len(flat) > 0 {
		if err := binary.Write(&buf, binary.LittleEndian, flat); err != nil {
			return entryLine{}, fmt.Errorf("cannot encode vectors of %s: %w", name, err)
		}
	}
	paragraphs := e.Paragraphs
	if paragraphs == nil {
		paragraphs = []string{}
	}
	return entryLine{
		Command:    name,
		Delimiter:  e.Delimiter,
		Dim:        dim,
		Paragraphs: paragraphs,
		Vectors:    buf.Bytes(),
	}, nil
}

// decode reads a cache file produced by encode.
func decode(r io.Reader) (*ModelCache, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: invalid header: %v", ErrCorrupt, err)
	}
	if h.Format != fileFormat {
		return nil, fmt.Errorf("%w: unexpected format %q", ErrCorrupt, h.Format)
	}
	if h.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, h.Version)
	}

	mc := &ModelCache{Model: h.ModelID, Commands: make(map[string]*Entry, h.Commands)}
	mc.CreatedAt, _ = time.Parse(time.RFC3339, h.CreatedAt)
	mc.UpdatedAt, _ = time.Parse(time.RFC3339, h.UpdatedAt)

	for {
		var line entryLine
		err := dec.Decode(&line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid entry after %d commands: %v", ErrCorrupt, len(mc.Commands), err)
		}
		if _, dup := mc.Commands[line.Command]; dup {
			return nil, fmt.Errorf("%w: duplicate command %q", ErrCorrupt, line.Command)
		}
		e, err := fromLine(line)
		if err != nil {
			return nil, err
		}
		mc.Commands[line.Command] = e
	}
	if len(mc.Commands) != h.Commands {
		return nil, fmt.Errorf("%w: header lists %d commands, found %d", ErrCorrupt, h.Commands, len(mc.Commands))
	}
	return mc, nil
}

func fromLine(line entryLine) (*Entry, error) {
	n := len(line.Paragraphs)
	if line.Dim < 0 {
		return nil, fmt.Errorf("%w: invalid dim %d for %s", ErrCorrupt, line.Dim, line.Command)
	}
	expected := n * line.Dim * 4
	if len(line.Vectors) != expected {
		return nil, fmt.Errorf("%w: vectors of %s are %d bytes, want %d (paragraphs=%d dim=%d)",
			ErrCorrupt, line.Command, len(line.Vectors), expected, n, line.Dim)
	}
	flat := make([]float32, n*line.Dim)
	if len(flat) > 0 {
		if err := binary.Read(bytes.NewReader(line.Vectors), binary.LittleEndian, flat); err != nil {
			return nil, fmt.Errorf("%w: cannot read vectors of %s: %v", ErrCorrupt, line.Command, err)
		}
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = flat[i*line.Dim : (i+1)*line.Dim : (i+1)*line.Dim]
	}
	paragraphs := line.Paragraphs
	if paragraphs == nil {
		paragraphs = []string{}
	}
	return &Entry{Delimiter: line.Delimiter, Paragraphs: paragraphs, Vectors: vectors}, nil
}
