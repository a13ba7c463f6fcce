package glyph

// Kind 表示 URL 中的选择器类型段。
type Kind string

const (
	KindID   Kind = "id"
	KindName Kind = "name"
	KindChar Kind = "char"
)

// ParseKind 仅接受 id/name/char，大小写敏感。
func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindID, KindName, KindChar:
		return Kind(raw), true
	default:
		return "", false
	}
}

// Selector 是已解码的 (type, value) 对。
type Selector struct {
	Kind  Kind
	Value string
}

func (s Selector) String() string {
	return string(s.Kind) + "/" + s.Value
}
