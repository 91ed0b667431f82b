// Package hdm provides a high-level API for decoding HDM solver export
// files: self-describing binary files whose schema travels in a textual
// header ahead of the payload.
//
// Basic usage:
//
//	// Decode every message of a file to maps
//	records, err := hdm.DecodeAll(fileData)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Serialize the whole file to JSON
//	jsonData, err := hdm.SerializeToJSON(fileData)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Check a file's header without touching the payload
//	if err := hdm.ValidateHeader(fileData); err != nil {
//	    log.Fatal(err)
//	}
package hdm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/twinfer/hdm-plugin/pkg/hdmstruct"
)

// Parser wraps the decode engine with registry caching and configuration.
// Files produced by one solver run share an identical header, so compiling
// the schema once per distinct header text pays off across a batch.
type Parser struct {
	registryCache map[string]*hdmstruct.Registry
	cacheMutex    sync.RWMutex
	logger        *slog.Logger
	options       options
}

// options holds configuration for the parser
type options struct {
	messageType   string
	logger        *slog.Logger
	enableCaching bool
	maxMessages   int
	debugMode     bool
}

// Option is a function that configures parser options
type Option func(*options)

// WithMessageType overrides the root type named by the file's header.
func WithMessageType(messageType string) Option {
	return func(o *options) {
		o.messageType = messageType
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCaching controls whether compiled registries are cached per distinct
// header text. Enabled by default.
func WithCaching(enabled bool) Option {
	return func(o *options) {
		o.enableCaching = enabled
	}
}

// WithMaxMessages caps how many messages DecodeAll reads from one file.
// Zero means no cap.
func WithMaxMessages(n int) Option {
	return func(o *options) {
		o.maxMessages = n
	}
}

// WithDebugMode enables debug logging
func WithDebugMode(enabled bool) Option {
	return func(o *options) {
		o.debugMode = enabled
	}
}

// defaultOptions returns the default configuration
func defaultOptions() options {
	return options{
		logger:        slog.Default(),
		enableCaching: true,
	}
}

// Global parser instance for convenience functions
var globalParser *Parser
var globalParserOnce sync.Once

// getGlobalParser returns a singleton parser instance
func getGlobalParser() *Parser {
	globalParserOnce.Do(func() {
		globalParser = NewParser()
	})
	return globalParser
}

// NewParser creates a new parser instance with the given options
func NewParser(opts ...Option) *Parser {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.debugMode {
		options.logger = options.logger.With("debug", true)
	}

	return &Parser{
		registryCache: make(map[string]*hdmstruct.Registry),
		logger:        options.logger,
		options:       options,
	}
}

// Decode parses the first message of an HDM file into a map.
func Decode(data []byte, opts ...Option) (map[string]any, error) {
	return getGlobalParser().Decode(context.Background(), data, opts...)
}

// DecodeAll parses every message of an HDM file into maps.
func DecodeAll(data []byte, opts ...Option) ([]map[string]any, error) {
	return getGlobalParser().DecodeAll(context.Background(), data, opts...)
}

// DecodeFile reads a file from disk and parses every message in it.
func DecodeFile(path string, opts ...Option) ([]map[string]any, error) {
	return getGlobalParser().DecodeFile(context.Background(), path, opts...)
}

// SerializeToJSON parses an HDM file and renders its messages as a JSON array.
func SerializeToJSON(data []byte, opts ...Option) ([]byte, error) {
	return getGlobalParser().SerializeToJSON(context.Background(), data, opts...)
}

// ValidateHeader checks that a file carries a well-formed header and a
// compilable schema, without decoding any payload bytes.
func ValidateHeader(data []byte, opts ...Option) error {
	return getGlobalParser().ValidateHeader(data, opts...)
}

// Decode parses the first message of an HDM file into a map.
func (p *Parser) Decode(ctx context.Context, data []byte, opts ...Option) (map[string]any, error) {
	interp, err := p.newInterpreter(data, opts...)
	if err != nil {
		return nil, err
	}
	record, err := interp.ParseMessage(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing message: file has no messages")
		}
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	return record.Map(), nil
}

// DecodeAll parses every message of an HDM file into maps, in payload order.
func (p *Parser) DecodeAll(ctx context.Context, data []byte, opts ...Option) ([]map[string]any, error) {
	options := p.options
	for _, opt := range opts {
		opt(&options)
	}

	interp, err := p.newInterpreter(data, opts...)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for options.maxMessages == 0 || len(records) < options.maxMessages {
		record, err := interp.ParseMessage(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing message %d: %w", len(records), err)
		}
		records = append(records, record.Map())
	}
	return records, nil
}

// DecodeFile reads a file from disk and parses every message in it.
func (p *Parser) DecodeFile(ctx context.Context, path string, opts ...Option) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return p.DecodeAll(ctx, data, opts...)
}

// SerializeToJSON parses an HDM file and renders its messages as a JSON array.
func (p *Parser) SerializeToJSON(ctx context.Context, data []byte, opts ...Option) ([]byte, error) {
	records, err := p.DecodeAll(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	jsonData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling to JSON: %w", err)
	}
	return jsonData, nil
}

// ValidateHeader checks header syntax and schema compilability only.
func (p *Parser) ValidateHeader(data []byte, opts ...Option) error {
	_, _, err := p.compileRegistry(data, opts...)
	return err
}

// Schema returns the compiled schema summary of a file's header.
func (p *Parser) Schema(data []byte, opts ...Option) (hdmstruct.SchemaDump, error) {
	registry, _, err := p.compileRegistry(data, opts...)
	if err != nil {
		return hdmstruct.SchemaDump{}, err
	}
	return registry.Dump(), nil
}

// newInterpreter compiles (or recalls) the file's registry and opens a
// payload cursor at offset zero.
func (p *Parser) newInterpreter(data []byte, opts ...Option) (*hdmstruct.Interpreter, error) {
	registry, payload, err := p.compileRegistry(data, opts...)
	if err != nil {
		return nil, err
	}
	return hdmstruct.NewPayloadInterpreter(registry, payload, p.logger), nil
}

// compileRegistry splits the file, then compiles the header's schema,
// consulting the per-header cache when enabled. The cache key includes any
// message type override since it changes the compiled root.
func (p *Parser) compileRegistry(data []byte, opts ...Option) (*hdmstruct.Registry, []byte, error) {
	options := p.options
	for _, opt := range opts {
		opt(&options)
	}

	header, payload, err := hdmstruct.LoadHeader(data)
	if err != nil {
		return nil, nil, fmt.Errorf("loading header: %w", err)
	}
	if options.messageType != "" {
		header.Message.Type = options.messageType
	}

	key := options.messageType + "\x00" + headerKey(data)
	if options.enableCaching {
		p.cacheMutex.RLock()
		cached, exists := p.registryCache[key]
		p.cacheMutex.RUnlock()
		if exists {
			return cached, payload, nil
		}
	}

	registry, err := hdmstruct.Compile(header)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling schema: %w", err)
	}

	if options.enableCaching {
		p.cacheMutex.Lock()
		p.registryCache[key] = registry
		p.cacheMutex.Unlock()
	}
	return registry, payload, nil
}

// headerKey is the header text up to the end marker, which fully
// determines the compiled registry.
func headerKey(data []byte) string {
	if idx := bytes.Index(data, []byte(hdmstruct.HeaderEndMarker)); idx >= 0 {
		return string(data[:idx])
	}
	return string(data)
}

// ClearCache clears the compiled registry cache
func (p *Parser) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.registryCache = make(map[string]*hdmstruct.Registry)
}
