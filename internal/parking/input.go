package parking

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ConsoleInput reads menu selections and registration numbers line by line.
type ConsoleInput struct {
	scanner *bufio.Scanner
}

func NewConsoleInput(r io.Reader) *ConsoleInput {
	return &ConsoleInput{
		scanner: bufio.NewScanner(r),
	}
}

func (c *ConsoleInput) readLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}

// ReadSelection returns -1 for input that is not a number, leaving the
// decision to the caller.
func (c *ConsoleInput) ReadSelection() (int, error) {
	line, err := c.readLine()
	if err != nil {
		return 0, err
	}

	selection, err := strconv.Atoi(line)
	if err != nil {
		return -1, nil
	}
	return selection, nil
}

func (c *ConsoleInput) ReadVehicleRegistrationNumber() (string, error) {
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", fmt.Errorf("%w: empty vehicle registration number", ErrInvalidInput)
	}
	return line, nil
}

// StaticInput answers every read with fixed values.
type StaticInput struct {
	Selection        int
	VehicleRegNumber string
}

func (s StaticInput) ReadSelection() (int, error) {
	return s.Selection, nil
}

func (s StaticInput) ReadVehicleRegistrationNumber() (string, error) {
	if strings.TrimSpace(s.VehicleRegNumber) == "" {
		return "", fmt.Errorf("%w: empty vehicle registration number", ErrInvalidInput)
	}
	return strings.TrimSpace(s.VehicleRegNumber), nil
}
