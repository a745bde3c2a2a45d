package ime

import (
	"github.com/godbus/dbus/v5"
)

// D-Bus property errors.
const (
	errUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"
	errUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
	errPropertyReadOnly = "org.freedesktop.DBus.Error.PropertyReadOnly"
	errInvalidArgs      = "org.freedesktop.DBus.Error.InvalidArgs"
)

// contentType is the (uu) value of the ContentType property.
type contentType struct {
	Purpose uint32
	Hints   uint32
}

// engineProperties is the org.freedesktop.DBus.Properties interface of an
// engine. Current IBus versions set the content type through it.
type engineProperties struct{ e *Engine }

func (p engineProperties) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	if iface != EngineInterface {
		return dbus.Variant{}, dbus.NewError(errUnknownInterface, []interface{}{iface})
	}
	switch name {
	case "ContentType":
		var ct contentType
		if err := p.e.do(func() { ct = contentType{p.e.purpose, p.e.hints} }); err != nil {
			return dbus.Variant{}, err
		}
		return dbus.MakeVariant(ct), nil
	case "FocusId":
		return dbus.MakeVariant(false), nil
	case "ActiveSurroundingText":
		return dbus.MakeVariant(true), nil
	}
	return dbus.Variant{}, dbus.NewError(errUnknownProperty, []interface{}{name})
}

func (p engineProperties) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != EngineInterface {
		return nil, dbus.NewError(errUnknownInterface, []interface{}{iface})
	}
	all := make(map[string]dbus.Variant, 3)
	for _, name := range []string{"ContentType", "FocusId", "ActiveSurroundingText"} {
		v, err := p.Get(iface, name)
		if err != nil {
			return nil, err
		}
		all[name] = v
	}
	return all, nil
}

func (p engineProperties) Set(iface, name string, value dbus.Variant) *dbus.Error {
	if iface != EngineInterface {
		return dbus.NewError(errUnknownInterface, []interface{}{iface})
	}
	switch name {
	case "ContentType":
		ct, ok := contentTypeOf(value)
		if !ok {
			return dbus.NewError(errInvalidArgs, []interface{}{"ContentType must be (uu), got " + value.Signature().String()})
		}
		return p.e.SetContentType(ct.Purpose, ct.Hints)
	case "FocusId", "ActiveSurroundingText":
		return dbus.NewError(errPropertyReadOnly, []interface{}{name})
	}
	return dbus.NewError(errUnknownProperty, []interface{}{name})
}

func contentTypeOf(v dbus.Variant) (contentType, bool) {
	switch val := v.Value().(type) {
	case contentType:
		return val, true
	case []interface{}:
		if len(val) != 2 {
			return contentType{}, false
		}
		purpose, ok1 := val[0].(uint32)
		hints, ok2 := val[1].(uint32)
		return contentType{purpose, hints}, ok1 && ok2
	}
	return contentType{}, false
}
