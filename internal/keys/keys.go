package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings understood by the watch loop when it is
// attached to a terminal.
type KeyMap struct {
	// Manual refresh of every source
	Refresh key.Binding

	// Run the archived-expiry sweep now
	Sweep key.Binding

	// Log the poll state of every source
	Status key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh sources"),
		),
		Sweep: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sweep archived"),
		),
		Status: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "source status"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Help returns one line describing every binding.
func (k *KeyMap) Help() string {
	var out string
	for i, b := range []key.Binding{k.Refresh, k.Sweep, k.Status, k.Quit} {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
