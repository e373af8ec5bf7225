package reservation

import (
	"fmt"
	"strings"
)

// DeviceClass decides which date/time controls a session gets.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
)

var mobileMarkers = []string{
	"mobi", "android", "iphone", "ipad", "ipod", "tablet",
	"blackberry", "bb10", "opera mini", "iemobile", "windows phone", "silk/",
}

// DeviceClassFromUserAgent treats phones and tablets as mobile.
func DeviceClassFromUserAgent(ua string) DeviceClass {
	ua = strings.ToLower(ua)
	for _, m := range mobileMarkers {
		if strings.Contains(ua, m) {
			return DeviceMobile
		}
	}
	return DeviceDesktop
}

// Field names a date/time control.
type Field string

const (
	FieldDate      Field = "date"
	FieldStartTime Field = "start_time"
	FieldEndTime   Field = "end_time"
	FieldStart     Field = "start"
	FieldEnd       Field = "end"
)

// TimeInput turns raw control values into composer edits. Implementations
// differ in which controls they offer but produce the same window mutations.
type TimeInput interface {
	Mode() string
	Fields() []Field
	Apply(c *Composer, f Field, raw string) error
}

// SelectInput picks the controls for a device class: compact native inputs
// on mobile, a full timestamp picker elsewhere.
func SelectInput(dc DeviceClass) TimeInput {
	if dc == DeviceMobile {
		return NativeInput{}
	}
	return RichInput{}
}

// NativeInput handles a date input plus two time inputs.
type NativeInput struct{}

func (NativeInput) Mode() string { return "native" }

func (NativeInput) Fields() []Field {
	return []Field{FieldDate, FieldStartTime, FieldEndTime}
}

func (NativeInput) Apply(c *Composer, f Field, raw string) error {
	switch f {
	case FieldDate:
		// an unparseable date leaves the window as it is; the input stays editable
		if d, ok := ParseDate(raw, c.Location()); ok {
			c.SetDate(d)
		}
	case FieldStartTime:
		c.SetStartTime(ParseClock(raw))
	case FieldEndTime:
		c.SetEndTime(ParseClock(raw))
	default:
		return fmt.Errorf("native input %q: %w", f, ErrUnknownField)
	}
	return nil
}

// RichInput handles pickers that edit whole timestamps.
type RichInput struct{}

func (RichInput) Mode() string { return "rich" }

func (RichInput) Fields() []Field {
	return []Field{FieldDate, FieldStart, FieldEnd}
}

func (RichInput) Apply(c *Composer, f Field, raw string) error {
	switch f {
	case FieldDate:
		if t, ok := ParseTimestamp(raw, c.Location()); ok {
			c.SetDate(t)
		} else if d, ok := ParseDate(raw, c.Location()); ok {
			c.SetDate(d)
		}
	case FieldStart:
		if t, ok := ParseTimestamp(raw, c.Location()); ok {
			c.SetStartDateTime(t)
		}
	case FieldEnd:
		if t, ok := ParseTimestamp(raw, c.Location()); ok {
			c.SetEndDateTime(t)
		}
	default:
		return fmt.Errorf("rich input %q: %w", f, ErrUnknownField)
	}
	return nil
}
