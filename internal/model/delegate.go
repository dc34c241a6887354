package model

// Delegate receives the user-facing events of one notification. Producers
// attach it at construction; the message center copies the handle before
// mutating its list so dispatch survives a concurrent removal.
type Delegate interface {
	Display()
	Close(byUser bool)
	Click()
	ButtonClick(index int)
	HasClickedListener() bool
}

// DelegateFuncs adapts plain functions to Delegate. Nil fields are ignored.
type DelegateFuncs struct {
	OnDisplay     func()
	OnClose       func(byUser bool)
	OnClick       func()
	OnButtonClick func(index int)
}

var _ Delegate = (*DelegateFuncs)(nil)

func (d *DelegateFuncs) Display() {
	if d.OnDisplay != nil {
		d.OnDisplay()
	}
}

func (d *DelegateFuncs) Close(byUser bool) {
	if d.OnClose != nil {
		d.OnClose(byUser)
	}
}

func (d *DelegateFuncs) Click() {
	if d.OnClick != nil {
		d.OnClick()
	}
}

func (d *DelegateFuncs) ButtonClick(index int) {
	if d.OnButtonClick != nil {
		d.OnButtonClick(index)
	}
}

// HasClickedListener reports whether a click handler is set.
func (d *DelegateFuncs) HasClickedListener() bool {
	return d.OnClick != nil
}
