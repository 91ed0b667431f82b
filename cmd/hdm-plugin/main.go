package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/redpanda-data/benthos/v4/public/service"

	_ "github.com/redpanda-data/benthos/v4/public/components/io"
	_ "github.com/redpanda-data/benthos/v4/public/components/pure"

	"github.com/twinfer/hdm-plugin/pkg/hdm"
)

// HDMProcessor is a Benthos processor that decodes HDM solver export
// files. Each input message carries one whole file; each decoded message
// of the file becomes one structured output message.
type HDMProcessor struct {
	config    HDMConfig
	parser    *hdm.Parser
	filter    *vm.Program
	logger    *service.Logger
	mFiles    *service.MetricCounter
	mParsed   *service.MetricCounter
	mFiltered *service.MetricCounter
	mErrors   *service.MetricCounter
}

// HDMConfig contains configuration parameters for the HDM processor.
type HDMConfig struct {
	MessageType string `json:"message_type" yaml:"message_type"`
	MaxMessages int    `json:"max_messages" yaml:"max_messages"`
	Filter      string `json:"filter" yaml:"filter"`
}

func init() {
	// Register the processor with Benthos
	err := service.RegisterProcessor(
		"hdm",
		hdmProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newHDMProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

// hdmProcessorConfig returns a config spec for an hdm processor.
func hdmProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Decodes self-describing HDM solver export files into one structured message per record.").
		Description("This processor reads a complete HDM file from each input message, compiles the schema embedded in its header, and emits every decoded payload message as structured data.").
		Field(service.NewStringField("message_type").
			Description("Root type to decode in place of the one named by the file header. Leave empty to follow the header.").
			Default("")).
		Field(service.NewIntField("max_messages").
			Description("Maximum number of messages to decode per file. Zero means no limit.").
			Default(0)).
		Field(service.NewStringField("filter").
			Description("Optional boolean expression evaluated against each decoded record; records it rejects are dropped.").
			Example("count > 0 && kind.name == 'reflected'").
			Default("")).
		Version("0.1.0")
}

// newHDMProcessorFromConfig creates a new HDMProcessor from a parsed config.
func newHDMProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*HDMProcessor, error) {
	messageType, err := conf.FieldString("message_type")
	if err != nil {
		return nil, err
	}

	maxMessages, err := conf.FieldInt("max_messages")
	if err != nil {
		return nil, err
	}
	if maxMessages < 0 {
		return nil, fmt.Errorf("max_messages must not be negative, got %d", maxMessages)
	}

	filterSrc, err := conf.FieldString("filter")
	if err != nil {
		return nil, err
	}

	config := HDMConfig{
		MessageType: messageType,
		MaxMessages: maxMessages,
		Filter:      filterSrc,
	}

	var filter *vm.Program
	if filterSrc != "" {
		filter, err = expr.Compile(filterSrc, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("compiling filter expression: %w", err)
		}
	}

	var parserOpts []hdm.Option
	if messageType != "" {
		parserOpts = append(parserOpts, hdm.WithMessageType(messageType))
	}
	if maxMessages > 0 {
		parserOpts = append(parserOpts, hdm.WithMaxMessages(maxMessages))
	}

	metrics := mgr.Metrics()

	return &HDMProcessor{
		config:    config,
		parser:    hdm.NewParser(parserOpts...),
		filter:    filter,
		logger:    mgr.Logger(),
		mFiles:    metrics.NewCounter("hdm_files_processed"),
		mParsed:   metrics.NewCounter("hdm_parsed_messages"),
		mFiltered: metrics.NewCounter("hdm_filtered_messages"),
		mErrors:   metrics.NewCounter("hdm_processing_errors"),
	}, nil
}

// Process decodes one HDM file into a batch of structured messages.
func (h *HDMProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	h.logger.Debug("Decoding HDM file")

	fileData, err := msg.AsBytes()
	if err != nil {
		h.logger.Errorf("Failed to get file data from message: %v", err)
		h.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to get file data from message: %w", err))
		return service.MessageBatch{msg}, nil
	}

	if len(fileData) == 0 {
		h.logger.Warn("Empty file data provided")
		h.mErrors.Incr(1)
		msg.SetError(errors.New("empty file data provided"))
		return service.MessageBatch{msg}, nil
	}

	records, err := h.parser.DecodeAll(ctx, fileData)
	if err != nil {
		h.logger.Errorf("Failed to decode HDM file of size %d bytes: %v", len(fileData), err)
		h.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to decode HDM file of size %d bytes: %w", len(fileData), err))
		return service.MessageBatch{msg}, nil
	}

	batch := make(service.MessageBatch, 0, len(records))
	for i, record := range records {
		keep, err := h.keepRecord(record)
		if err != nil {
			h.logger.Errorf("Filter failed on message %d: %v", i, err)
			h.mErrors.Incr(1)
			msg.SetError(fmt.Errorf("filter failed on message %d: %w", i, err))
			return service.MessageBatch{msg}, nil
		}
		if !keep {
			h.mFiltered.Incr(1)
			continue
		}

		newMsg := service.NewMessage(nil)
		newMsg.SetStructured(record)
		newMsg.MetaSet("hdm_message_index", fmt.Sprintf("%d", i))

		// Copy metadata from original message
		msg.MetaWalk(func(key, value string) error {
			newMsg.MetaSet(key, value)
			return nil
		})

		batch = append(batch, newMsg)
	}

	h.logger.Debugf("Decoded %d messages from %d bytes, kept %d", len(records), len(fileData), len(batch))
	h.mFiles.Incr(1)
	h.mParsed.Incr(int64(len(records)))
	return batch, nil
}

// keepRecord applies the configured filter expression to one record.
func (h *HDMProcessor) keepRecord(record map[string]any) (bool, error) {
	if h.filter == nil {
		return true, nil
	}
	out, err := expr.Run(h.filter, record)
	if err != nil {
		return false, err
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out)
	}
	return keep, nil
}

// Close the processor resources
func (h *HDMProcessor) Close(ctx context.Context) error {
	h.logger.Debug("Closing HDM processor and clearing registry cache")
	h.parser.ClearCache()
	return nil
}

func main() {
	service.RunCLI(context.Background())
}
