package review

// KeyAction is what a keyboard shortcut maps to.
type KeyAction string

const (
	KeyNone           KeyAction = ""
	KeyAccept         KeyAction = "accept"
	KeyReject         KeyAction = "reject"
	KeyTogglePlayback KeyAction = "toggle_playback"
)

// ActionForKey maps a DOM KeyboardEvent.key value to its shortcut.
func ActionForKey(key string) KeyAction {
	switch key {
	case "ArrowRight":
		return KeyAccept
	case "ArrowLeft":
		return KeyReject
	case " ", "Space", "Spacebar":
		return KeyTogglePlayback
	default:
		return KeyNone
	}
}
