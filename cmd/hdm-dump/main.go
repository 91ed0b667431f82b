// Command hdm-dump inspects HDM solver export files from the command line:
// it prints the schema embedded in a file's header as YAML and the decoded
// messages as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/twinfer/hdm-plugin/pkg/hdm"
)

func main() {
	schemaOnly := flag.Bool("schema", false, "print the compiled schema and skip the payload")
	validateOnly := flag.Bool("validate", false, "check the header compiles and exit")
	maxMessages := flag.Int("max", 0, "decode at most this many messages (0 = all)")
	messageType := flag.String("type", "", "decode this root type instead of the header's")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.hdm>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *schemaOnly, *validateOnly, *maxMessages, *messageType, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "hdm-dump: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, schemaOnly, validateOnly bool, maxMessages int, messageType string, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var opts []hdm.Option
	opts = append(opts, hdm.WithLogger(logger))
	if messageType != "" {
		opts = append(opts, hdm.WithMessageType(messageType))
	}
	if maxMessages > 0 {
		opts = append(opts, hdm.WithMaxMessages(maxMessages))
	}
	parser := hdm.NewParser(opts...)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if validateOnly {
		if err := parser.ValidateHeader(data); err != nil {
			return err
		}
		fmt.Printf("%s: header OK\n", path)
		return nil
	}

	if schemaOnly {
		dump, err := parser.Schema(data)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(dump)
		if err != nil {
			return fmt.Errorf("marshaling schema: %w", err)
		}
		os.Stdout.Write(out)
		return nil
	}

	jsonData, err := parser.SerializeToJSON(context.Background(), data)
	if err != nil {
		return err
	}
	os.Stdout.Write(jsonData)
	fmt.Println()
	return nil
}
