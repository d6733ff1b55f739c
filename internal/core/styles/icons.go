package styles

var (
	IconCheck   = "✓"
	IconCross   = "✗"
	IconWarn    = "!"
	IconArrow   = "→"
	IconGroup   = "▸"
	IconEvent   = "•"
	IconRef     = "↳"
	IconPointer = "›"
)
