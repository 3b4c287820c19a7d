package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcarmo/go-opcua/internal/codec"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "connect")
	assert.Contains(t, names, "read")
	assert.Contains(t, names, "publish")
	assert.Contains(t, names, "version")
}

func TestPrintDataValueFormatsGoodScalar(t *testing.T) {
	status := uint32(0)
	v := codec.DataValue{
		Value:  &codec.Variant{Type: codec.VariantDouble, Scalar: 21.5},
		Status: &status,
	}
	// printDataValue writes to stdout; this just exercises it without panicking.
	printDataValue("ns=2;s=Temperature", v)
}

func TestPrintDataValueHandlesNilValue(t *testing.T) {
	printDataValue("ns=2;s=Missing", codec.DataValue{})
}
