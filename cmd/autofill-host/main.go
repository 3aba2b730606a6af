package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/protonpass/android-pass-sub021/internal/config"
	"github.com/protonpass/android-pass-sub021/internal/service"
)

const (
	version      = "0.1.0"
	bufferSize   = 1 << 16
	maxFrameSize = 1 << 20
)

var errFrameTooLarge = errors.New("frame too large")

// Behavior:
//  1. Loads the config and opens the service; stdout is reserved for frames so logs go to stderr.
//  2. Closes the service and exits on SIGINT or SIGTERM.
//  3. Serves request frames from stdin until EOF.
func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetPrefix("autofill-host")

	if configPath == "" {
		if p, err := config.DefaultPath(); err == nil {
			configPath = p
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	log.SetLevel(cfg.LogLevel())

	svc, err := service.New(cfg)
	if err != nil {
		log.Fatal("open vault", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		svc.Close()
		os.Exit(0)
	}()

	h := &host{svc: svc}
	if err := h.serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error("serve", "err", err)
	}
	svc.Close()
}

// serve answers length-prefixed JSON requests until r is exhausted.
func (h *host) serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, bufferSize)
	writer := bufio.NewWriterSize(w, bufferSize)

	for {
		payload, err := readFrame(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		resp := h.handleRequest(ctx, payload)

		if err := writeFrame(writer, resp); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf)
	if length > maxFrameSize {
		return nil, fmt.Errorf("%w: %d", errFrameTooLarge, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// writeFrame emits a response using Chrome's native messaging framing.
//
// Args:
//
//	w: buffered writer connected to stdout.
//	resp: response object to serialize.
//
// Returns:
//
//	error: non-nil if JSON marshaling or writing fails.
//
// Behavior:
//  1. Marshals the response to JSON and prefixes it with a 4-byte length field.
//  2. Writes the length and payload sequentially to the writer.
//  3. Flushes the buffer so the browser receives the complete frame.
func writeFrame(w *bufio.Writer, resp response) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(encoded)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	if _, err := w.Write(encoded); err != nil {
		return err
	}
	return w.Flush()
}
