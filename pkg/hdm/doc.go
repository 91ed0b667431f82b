// Package hdm provides a high-level API for decoding HDM solver export
// files.
//
// # Overview
//
// An HDM file is self-describing: a textual header declares the message
// schema, an end-of-header marker line closes it, and the remainder of the
// file is a little-endian binary payload holding one or more messages of
// the declared root type. This package handles the whole pipeline:
//
//   - Header parsing and schema compilation
//   - Message decoding to Go maps
//   - JSON serialization of decoded messages
//   - Registry caching across files that share a header
//   - Context support for cancellation and timeouts
//
// # Quick Start
//
// The simplest way to decode a file is using the global functions:
//
//	records, err := hdm.DecodeFile("run42.hdm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, record := range records {
//	    fmt.Printf("%+v\n", record)
//	}
//
// # JSON Support
//
// Render a file's messages as a JSON array for inspection:
//
//	jsonData, err := hdm.SerializeToJSON(fileData)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(jsonData)
//
// # Custom Parser Instance
//
// For more control, create a parser with specific options:
//
//	parser := hdm.NewParser(
//	    hdm.WithMaxMessages(100),
//	    hdm.WithDebugMode(true),
//	)
//	records, err := parser.DecodeAll(ctx, fileData)
//
// # Configuration Options
//
//   - WithMessageType(string): Override the header's root type
//   - WithLogger(*slog.Logger): Custom logging
//   - WithCaching(bool): Per-header registry caching (default on)
//   - WithMaxMessages(int): Cap messages read per file
//   - WithDebugMode(bool): Debug logging
//
// # Value Mapping
//
// Decoded values map onto plain Go types: integers become int64, floats
// float64, complex values {"real", "imag"} pairs, enums {"name", "value"}
// pairs, flag sets name-to-bool maps, and nested objects maps. A skipped
// optional field is present with a nil value. Containers decode to slices,
// except that a one-element container collapses to its bare element.
//
// # Streaming Decode
//
// For message-at-a-time control over a payload, use the hdmstruct package
// directly; this package's Parser is a convenience layer over it.
package hdm
