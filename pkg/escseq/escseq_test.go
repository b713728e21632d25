package escseq

import "testing"

func TestColorStripping(t *testing.T) {
	SetColors(true)
	if len(YellowText("test")) == 4 {
		t.Error("YellowText should contain escape sequences when colors are enabled")
	}

	SetColors(false)
	if YellowText("test") != "test" {
		t.Errorf("YellowText should be plain 'test' when colors are disabled, got %q", YellowText("test"))
	}

	// Reset for other tests
	SetColors(true)
}
