// Package fstest provides a conformance suite for core.FS providers.
//
// The suite checks the parts of the contract that textio's file helpers
// rely on: a created file reads back byte for byte, Create truncates,
// O_APPEND writes land after existing content, missing files report
// fs.ErrNotExist, and text written through textio round-trips with a
// single preamble even when appended to.
//
// Example usage:
//
//	func TestMyProvider(t *testing.T) {
//	    fstest.TestSuite(t, func() core.FS {
//	        return myprovider.New()
//	    })
//	}
package fstest

import (
	"testing"

	"github.com/jmgilman/go/textio/fs/core"
)

// FSTestConfig describes provider behaviour the suite has to adapt to.
type FSTestConfig struct {
	// SupportsAppend indicates OpenFile accepts os.O_APPEND.
	// Object stores return core.ErrUnsupported instead.
	SupportsAppend bool

	// VirtualDirectories indicates directories need not exist before a file
	// is created beneath them.
	VirtualDirectories bool

	// SkipTests lists subtests to skip, e.g. "Sink/Append" or a whole group
	// such as "Text".
	SkipTests []string
}

// POSIXTestConfig returns configuration for local and in-memory providers.
func POSIXTestConfig() FSTestConfig {
	return FSTestConfig{
		SupportsAppend:     true,
		VirtualDirectories: false,
	}
}

// S3TestConfig returns configuration for MinIO/S3 providers.
func S3TestConfig() FSTestConfig {
	return FSTestConfig{
		SupportsAppend:     false,
		VirtualDirectories: true,
	}
}

// TestSuite runs all conformance tests with POSIXTestConfig.
// newFS must return a fresh, empty filesystem on every call.
func TestSuite(t *testing.T, newFS func() core.FS) {
	TestSuiteWithConfig(t, newFS, POSIXTestConfig())
}

// TestSuiteWithConfig runs all conformance tests with the given configuration.
func TestSuiteWithConfig(t *testing.T, newFS func() core.FS, config FSTestConfig) {
	t.Run("Source", func(t *testing.T) {
		testSource(t, newFS(), config)
	})
	t.Run("Sink", func(t *testing.T) {
		testSink(t, newFS(), config)
	})
	t.Run("Text", func(t *testing.T) {
		testText(t, newFS(), config)
	})
}

// run executes fn as a subtest unless the configuration skips it.
func run(t *testing.T, config FSTestConfig, group, name string, fn func(t *testing.T)) {
	t.Helper()
	full := group + "/" + name
	t.Run(name, func(t *testing.T) {
		for _, skip := range config.SkipTests {
			if skip == full || skip == group {
				t.Skip("Skipped by provider configuration")
			}
		}
		fn(t)
	})
}
