package ime

import (
	"unicode/utf8"

	"github.com/godbus/dbus/v5"
)

// Attribute types and values of IBusAttribute.
const (
	attrTypeUnderline  uint32 = 1

	attrUnderlineSingle uint32 = 1
)

// Lookup table orientations.
const (
	orientationHorizontal int32 = 0
	orientationVertical   int32 = 1
)

// Property types and states of IBusProperty.
const (
	propTypeNormal uint32 = 0
	propTypeToggle uint32 = 1

	propStateUnchecked uint32 = 0
	propStateChecked   uint32 = 1
)

// ibusAttribute is IBusAttribute: (s a{sv} u u u u).
type ibusAttribute struct {
	Name        string
	Attachments map[string]dbus.Variant
	Type        uint32
	Value       uint32
	Start       uint32
	End         uint32
}

// ibusAttrList is IBusAttrList: (s a{sv} av).
type ibusAttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

// ibusText is IBusText: (s a{sv} s v).
type ibusText struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	Attributes  dbus.Variant
}

// ibusLookupTable is IBusLookupTable: (s a{sv} u u b b i av av).
type ibusLookupTable struct {
	Name          string
	Attachments   map[string]dbus.Variant
	PageSize      uint32
	CursorPos     uint32
	CursorVisible bool
	Round         bool
	Orientation   int32
	Candidates    []dbus.Variant
	Labels        []dbus.Variant
}

// ibusProperty is IBusProperty: (s a{sv} s u v s v b b u v v).
type ibusProperty struct {
	Name        string
	Attachments map[string]dbus.Variant
	Key         string
	Type        uint32
	Label       dbus.Variant
	Icon        string
	Tooltip     dbus.Variant
	Sensitive   bool
	Visible     bool
	State       uint32
	SubProps    dbus.Variant
	Symbol      dbus.Variant
}

// ibusPropList is IBusPropList: (s a{sv} av).
type ibusPropList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Properties  []dbus.Variant
}

func attachments() map[string]dbus.Variant {
	return map[string]dbus.Variant{}
}

func attrList(attrs ...ibusAttribute) dbus.Variant {
	list := ibusAttrList{
		Name:        "IBusAttrList",
		Attachments: attachments(),
		Attributes:  make([]dbus.Variant, 0, len(attrs)),
	}
	for _, a := range attrs {
		a.Name = "IBusAttribute"
		a.Attachments = attachments()
		list.Attributes = append(list.Attributes, dbus.MakeVariant(a))
	}
	return dbus.MakeVariant(list)
}

// plainText returns an IBusText without attributes.
func plainText(s string) dbus.Variant {
	return dbus.MakeVariant(ibusText{
		Name:        "IBusText",
		Attachments: attachments(),
		Text:        s,
		Attributes:  attrList(),
	})
}

// preeditText returns an IBusText underlined as a whole, the way clients
// draw composing text.
func preeditText(s string) dbus.Variant {
	n := uint32(utf8.RuneCountInString(s))
	return dbus.MakeVariant(ibusText{
		Name:        "IBusText",
		Attachments: attachments(),
		Text:        s,
		Attributes: attrList(ibusAttribute{
			Type:  attrTypeUnderline,
			Value: attrUnderlineSingle,
			Start: 0,
			End:   n,
		}),
	})
}

// lookupTable returns an IBusLookupTable holding every candidate. IBus
// pages the table itself around cursor.
func lookupTable(candidates, labels []string, cursor int, vertical bool) dbus.Variant {
	t := ibusLookupTable{
		Name:          "IBusLookupTable",
		Attachments:   attachments(),
		PageSize:      uint32(max(len(labels), 1)),
		CursorPos:     uint32(max(cursor, 0)),
		CursorVisible: true,
		Round:         false,
		Orientation:   orientationHorizontal,
		Candidates:    make([]dbus.Variant, len(candidates)),
		Labels:        make([]dbus.Variant, len(labels)),
	}
	if vertical {
		t.Orientation = orientationVertical
	}
	for i, c := range candidates {
		t.Candidates[i] = plainText(c)
	}
	for i, l := range labels {
		t.Labels[i] = plainText(l)
	}
	return dbus.MakeVariant(t)
}

// property describes one entry of the panel menu.
type property struct {
	Key     string
	Label   string
	Tooltip string
	Symbol  string
	Toggle  bool
	Checked bool
}

func (p property) variant() dbus.Variant {
	v := ibusProperty{
		Name:        "IBusProperty",
		Attachments: attachments(),
		Key:         p.Key,
		Type:        propTypeNormal,
		Label:       plainText(p.Label),
		Tooltip:     plainText(p.Tooltip),
		Sensitive:   true,
		Visible:     true,
		State:       propStateUnchecked,
		SubProps:    propList(),
		Symbol:      plainText(p.Symbol),
	}
	if p.Toggle {
		v.Type = propTypeToggle
	}
	if p.Checked {
		v.State = propStateChecked
	}
	return dbus.MakeVariant(v)
}

func propList(props ...property) dbus.Variant {
	list := ibusPropList{
		Name:        "IBusPropList",
		Attachments: attachments(),
		Properties:  make([]dbus.Variant, len(props)),
	}
	for i, p := range props {
		list.Properties[i] = p.variant()
	}
	return dbus.MakeVariant(list)
}

// textOf extracts the string of an IBusText variant. Values decoded from
// the bus arrive as []interface{}; values built in process are ibusText.
func textOf(v dbus.Variant) (string, bool) {
	switch t := v.Value().(type) {
	case ibusText:
		return t.Text, t.Name == "IBusText"
	case []interface{}:
		if len(t) < 3 {
			return "", false
		}
		name, _ := t[0].(string)
		text, ok := t[2].(string)
		if name != "IBusText" || !ok {
			return "", false
		}
		return text, true
	}
	return "", false
}
