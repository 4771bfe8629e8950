package plugin

// MenuType is the context a menu item appears in.
type MenuType int

const (
	MenuClient MenuType = iota
	MenuChannel
	MenuGlobal
)

// MenuItem is one entry in a plugin context menu.
type MenuItem struct {
	Type MenuType
	ID   int
	Text string
	Icon string
}

// Hotkey is a keyword the client can bind a key to.
type Hotkey struct {
	Keyword     string
	Description string
}

// menuIcon is loaded from the plugin's resource directory by the client.
const menuIcon = "t.png"

// InitMenus returns the plugin's menu items and submenu icon. The info
// plugin registers none.
func (p *Plugin) InitMenus() ([]MenuItem, string) {
	return []MenuItem{}, menuIcon
}

// InitHotkeys returns the plugin's hotkeys; there are none.
func (p *Plugin) InitHotkeys() []Hotkey {
	return []Hotkey{}
}
