package decs

import (
	"strings"
)

// Tag constants
const (
	tagName = "decs"
)

// Tag modifiers
const (
	modMut    = "mut"    // Write access
	modOpt    = "opt"    // Optional (nil if missing)
	modRes    = "res"    // Plain resource injection
	modReader = "reader" // Event reader registered at setup
	modSkip   = "-"      // Never injected
)

// FieldKind represents the type of field for injection.
type FieldKind int

const (
	// KindStorageField indicates a *Storage[T] field
	KindStorageField FieldKind = iota
	// KindChannelField indicates an *EventChannel[T] field
	KindChannelField
	// KindEntitiesField indicates an *Entities field
	KindEntitiesField
	// KindResourceField indicates a resource pointer tagged decs:"res"
	KindResourceField
	// KindReaderField indicates a *ReaderID[T] field
	KindReaderField
	// KindPayload indicates a field kept as system state
	KindPayload
)

// String returns the string representation of FieldKind.
func (k FieldKind) String() string {
	switch k {
	case KindStorageField:
		return "Storage"
	case KindChannelField:
		return "Channel"
	case KindEntitiesField:
		return "Entities"
	case KindResourceField:
		return "Resource"
	case KindReaderField:
		return "Reader"
	case KindPayload:
		return "Payload"
	default:
		return "Unknown"
	}
}

// TagInfo holds parsed tag information.
type TagInfo struct {
	Mutable  bool // decs:"mut"
	Optional bool // decs:"opt"
	Resource bool // decs:"res"
	Reader   bool // decs:"reader"
	Skip     bool // decs:"-"
}

// parseTag parses a decs struct tag.
func parseTag(tag string) TagInfo {
	info := TagInfo{}
	if tag == "" {
		return info
	}
	if tag == modSkip {
		info.Skip = true
		return info
	}

	for part := range strings.SplitSeq(tag, ",") {
		switch strings.TrimSpace(part) {
		case modMut:
			info.Mutable = true
		case modOpt:
			info.Optional = true
		case modRes:
			info.Resource = true
		case modReader:
			info.Reader = true
		}
	}

	return info
}
