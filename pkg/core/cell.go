package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// CellTag tells which variant a CellValue holds.
type CellTag int

const (
	// CellDefault is the absence of a value. The column default applies on
	// insert and "SET col = DEFAULT" is emitted on update. It is the zero value.
	CellDefault CellTag = iota
	// CellNull is an explicit SQL NULL.
	CellNull
	// CellConcrete is a literal value in its textual form.
	CellConcrete
	// CellLob is a large object whose serialization is described by a LobRef.
	CellLob
)

func (t CellTag) String() string {
	switch t {
	case CellDefault:
		return "default"
	case CellNull:
		return "null"
	case CellConcrete:
		return "concrete"
	case CellLob:
		return "lob"
	default:
		return "unknown"
	}
}

// LobOrigin records where a large-object value came from.
type LobOrigin int

const (
	// LobInlineText is text typed or pasted into the editor; emitted verbatim.
	LobInlineText LobOrigin = iota
	// LobHex is a hex-encoded byte string; emitted as a byte literal.
	LobHex
	// LobUpload is a token for server-side staged content.
	LobUpload
)

func (o LobOrigin) String() string {
	switch o {
	case LobInlineText:
		return "text"
	case LobHex:
		return "hex"
	case LobUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// LobRef is the out-of-band description of a large-object cell.
// Preview is for display only; synthesis reads Origin and Payload.
type LobRef struct {
	Origin  LobOrigin
	Payload string
	Preview string
}

// CellValue is a tagged union: Concrete(text) | Null | Default | Lob(ref).
type CellValue struct {
	tag  CellTag
	text string
	lob  LobRef
}

// Concrete returns a literal cell value.
func Concrete(text string) CellValue {
	return CellValue{tag: CellConcrete, text: text}
}

// Null returns the explicit NULL sentinel.
func Null() CellValue {
	return CellValue{tag: CellNull}
}

// Default returns the DEFAULT (absence) sentinel.
func Default() CellValue {
	return CellValue{}
}

// Lob returns a large-object cell. The preview is derived from the payload
// when empty.
func Lob(origin LobOrigin, payload string) CellValue {
	return CellValue{tag: CellLob, lob: LobRef{Origin: origin, Payload: payload, Preview: lobPreview(origin, payload)}}
}

// HexLob encodes raw bytes as a hex LOB cell.
func HexLob(b []byte) CellValue {
	return Lob(LobHex, hex.EncodeToString(b))
}

// Tag returns the variant.
func (v CellValue) Tag() CellTag { return v.tag }

// IsNull reports whether v is the NULL sentinel.
func (v CellValue) IsNull() bool { return v.tag == CellNull }

// IsDefault reports whether v is the DEFAULT sentinel.
func (v CellValue) IsDefault() bool { return v.tag == CellDefault }

// IsConcrete reports whether v holds a literal value.
func (v CellValue) IsConcrete() bool { return v.tag == CellConcrete }

// Text returns the literal text of a concrete value.
func (v CellValue) Text() (string, bool) {
	return v.text, v.tag == CellConcrete
}

// LobRef returns the large-object reference of a LOB cell.
func (v CellValue) LobRef() (LobRef, bool) {
	return v.lob, v.tag == CellLob
}

// Equal compares tag and payload. LOB previews are ignored.
func (v CellValue) Equal(o CellValue) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case CellConcrete:
		return v.text == o.text
	case CellLob:
		return v.lob.Origin == o.lob.Origin && v.lob.Payload == o.lob.Payload
	default:
		return true
	}
}

// Display renders the value for grids and logs.
func (v CellValue) Display() string {
	switch v.tag {
	case CellNull:
		return "NULL"
	case CellDefault:
		return "DEFAULT"
	case CellLob:
		return v.lob.Preview
	default:
		return v.text
	}
}

func (v CellValue) String() string {
	return v.Display()
}

const previewLimit = 32

func lobPreview(origin LobOrigin, payload string) string {
	switch origin {
	case LobHex:
		return fmt.Sprintf("(BLOB %d bytes)", len(payload)/2)
	case LobUpload:
		return "(uploaded file)"
	}
	if len(payload) > previewLimit {
		return payload[:previewLimit] + "..."
	}
	return payload
}

// Sentinel spellings accepted by ParseCell.
const (
	NullLiteral    = "$null"
	DefaultLiteral = "$default"
)

// ParseCell converts a decoded YAML/JSON value into a CellValue.
//
//	nil, "$null"             -> Null
//	"$default"               -> Default
//	{hex: "..."}             -> Lob(hex)
//	{upload: "token"}        -> Lob(upload)
//	{text: "..."}            -> Lob(inline text)
//	anything else            -> Concrete(fmt.Sprint(v))
func ParseCell(raw any) (CellValue, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case CellValue:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case NullLiteral:
			return Null(), nil
		case DefaultLiteral:
			return Default(), nil
		}
		return Concrete(v), nil
	case map[string]any:
		return parseLobMap(v)
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = val
		}
		return parseLobMap(m)
	case bool:
		if v {
			return Concrete("true"), nil
		}
		return Concrete("false"), nil
	default:
		return Concrete(fmt.Sprint(v)), nil
	}
}

func parseLobMap(m map[string]any) (CellValue, error) {
	if len(m) != 1 {
		return CellValue{}, fmt.Errorf("large object cell needs exactly one of hex, upload, text; got %d keys", len(m))
	}
	for k, val := range m {
		s, ok := val.(string)
		if !ok {
			return CellValue{}, fmt.Errorf("large object %s payload must be a string", k)
		}
		switch k {
		case "hex":
			s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "\\x")
			if _, err := hex.DecodeString(s); err != nil {
				return CellValue{}, fmt.Errorf("invalid hex payload: %w", err)
			}
			return Lob(LobHex, strings.ToLower(s)), nil
		case "upload":
			if s == "" {
				return CellValue{}, fmt.Errorf("upload token is empty")
			}
			return Lob(LobUpload, s), nil
		case "text":
			return Lob(LobInlineText, s), nil
		default:
			return CellValue{}, fmt.Errorf("unknown large object origin %q", k)
		}
	}
	return CellValue{}, nil
}
