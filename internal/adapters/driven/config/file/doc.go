// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage. Nested tables are
//     flattened into dot-notation keys on load and nested again on save.
package file
