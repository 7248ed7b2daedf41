package device

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDefault, "Default"},
		{StateAddress, "Address"},
		{StateConfigured, "Configured"},
		{State(9), "State(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvert(t *testing.T) {
	got := Invert([]byte{0xAA, 0x55, 0x00, 0xFF})
	want := []byte{0x55, 0xAA, 0xFF, 0x00}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Invert()[%d] = 0x%02X, want 0x%02X", i, got[i], want[i])
		}
	}
	if len(Invert(nil)) != 0 {
		t.Error("Invert(nil) should be empty")
	}
}
