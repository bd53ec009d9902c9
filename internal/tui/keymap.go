package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	addActivity    key.Binding
	activityInfo   key.Binding
	editActivity   key.Binding
	editDeps       key.Binding
	deleteActivity key.Binding
	hardDelete     key.Binding
	restore        key.Binding
	toggleArchived key.Binding
	shiftEarlier   key.Binding
	shiftLater     key.Binding
	growSpan       key.Binding
	shrinkSpan     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "activity up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "activity down")),
		addActivity:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new activity")),
		activityInfo:   key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "activity info")),
		editActivity:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit activity")),
		editDeps:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "edit dependencies")),
		deleteActivity: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete (default)")),
		hardDelete:     key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "hard delete")),
		restore:        key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore activity")),
		toggleArchived: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle archived")),
		shiftEarlier:   key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "shift earlier")),
		shiftLater:     key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "shift later")),
		growSpan:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "extend end")),
		shrinkSpan:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "shorten end")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addActivity, k.activityInfo, k.editActivity, k.editDeps, k.deleteActivity, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addActivity, k.activityInfo, k.editActivity, k.editDeps, k.toggleArchived, k.toggleHelp, k.reload, k.quit},
		{k.moveUp, k.moveDown, k.shiftEarlier, k.shiftLater, k.growSpan, k.shrinkSpan},
		{k.deleteActivity, k.hardDelete, k.restore},
	}
}
