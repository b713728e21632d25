// Package escseq renders the handful of terminal escape sequences the
// shell uses. SetColors(false) turns every helper into a passthrough for
// dumb terminals and batch output.
package escseq

import "fmt"

const KeyEscape = 27

var (
	resetColor = []byte{KeyEscape, '[', '0', 'm'}
	// Colors
	greenBold = []byte{KeyEscape, '[', '1', ';', '3', '2', 'm'}
	redBold   = []byte{KeyEscape, '[', '1', ';', '3', '1', 'm'}
	yellow    = []byte{KeyEscape, '[', '0', ';', '3', '3', 'm'}
	cyanBold  = []byte{KeyEscape, '[', '1', ';', '3', '6', 'm'}
)

func SetColors(enabled bool) {
	if !enabled {
		resetColor = []byte("")
		greenBold = []byte("")
		redBold = []byte("")
		yellow = []byte("")
		cyanBold = []byte("")
	}
}

func YellowText(m string) string {
	return fmt.Sprintf("%s%s%s", string(yellow), m, string(resetColor))
}

func RedBoldText(m string) string {
	return fmt.Sprintf("%s%s%s", string(redBold), m, string(resetColor))
}

func GreenBoldText(m string) string {
	return fmt.Sprintf("%s%s%s", string(greenBold), m, string(resetColor))
}

func CyanBoldText(m string) string {
	return fmt.Sprintf("%s%s%s", string(cyanBold), m, string(resetColor))
}
