package parking

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleInput(t *testing.T) {
	input := NewConsoleInput(strings.NewReader("1\n  ABCDEF  \nabc\n\n"))

	selection, err := input.ReadSelection()
	require.NoError(t, err)
	assert.Equal(t, 1, selection)

	reg, err := input.ReadVehicleRegistrationNumber()
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", reg)

	selection, err = input.ReadSelection()
	require.NoError(t, err)
	assert.Equal(t, -1, selection)

	_, err = input.ReadVehicleRegistrationNumber()
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = input.ReadSelection()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStaticInput(t *testing.T) {
	input := StaticInput{Selection: 2, VehicleRegNumber: " XY-123 "}

	selection, err := input.ReadSelection()
	require.NoError(t, err)
	assert.Equal(t, 2, selection)

	reg, err := input.ReadVehicleRegistrationNumber()
	require.NoError(t, err)
	assert.Equal(t, "XY-123", reg)

	_, err = StaticInput{}.ReadVehicleRegistrationNumber()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPromptedInputPrintsPrompts(t *testing.T) {
	var out strings.Builder
	input := NewPromptedInput(StaticInput{Selection: 1, VehicleRegNumber: "ABCDEF"}, &out)

	_, err := input.ReadSelection()
	require.NoError(t, err)
	_, err = input.ReadVehicleRegistrationNumber()
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Please select vehicle type from menu")
	assert.Contains(t, out.String(), "2 BIKE")
	assert.Contains(t, out.String(), "Please type the vehicle registration number")
}
