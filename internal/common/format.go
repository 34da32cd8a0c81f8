package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RaoPerTao is the number of smallest units per display unit. The ledger
// stores rao exclusively; tao exists only at the display boundary.
const RaoPerTao = 1_000_000_000

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// FormatTao renders a rao amount as a decimal tao string, e.g. 1500000000 ->
// "1.5".
func FormatTao(rao int64) string {
	return decimal.New(rao, -9).String()
}

// ParseTao converts a decimal tao string into rao. Fractions below one rao
// are rejected rather than silently truncated.
func ParseTao(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	rao := d.Shift(9)
	if !rao.IsInteger() {
		return 0, fmt.Errorf("amount %q is below the smallest unit", s)
	}
	if !rao.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return rao.BigInt().Int64(), nil
}

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}
