package label

import (
	"fmt"

	"github.com/pkg/errors"

	"marcstream/pkg/contract"
)

// ErrOutOfRange 数值位超出定宽位数或为负。
var ErrOutOfRange = errors.Wrap(contract.ErrInvalidInput, "label value out of range")

// FieldError 描述某个数值位的构造期校验失败。
type FieldError struct {
	Field string
	Value int
	Width int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("label %s=%d does not fit %d digit(s): %v", e.Field, e.Value, e.Width, ErrOutOfRange)
}

func (e *FieldError) Unwrap() error { return ErrOutOfRange }

// 数值位与枚举位集合（修复规则按集合施加）。
var (
	numericPos = []int{0, 1, 2, 3, 4, 10, 11, 12, 13, 14, 15, 16, 20, 21, 22}
	enumPos    = []int{5, 6, 7, 8, 9, 17, 18, 19, 23}
)

// Builder 以私有暂存区逐位构造标签；Build 时修复并复制为不可变的 Label。
// Builder 不是并发安全的，但不同 Builder 之间不共享任何状态。
type Builder struct {
	scratch [Len]byte
}

// NewBuilder 返回全空格初值的构造器。
func NewBuilder() *Builder {
	b := &Builder{}
	for i := range b.scratch {
		b.scratch[i] = ' '
	}
	return b
}

// load 以 p 覆盖暂存区：不足补空格，超出截断。
func (b *Builder) load(p []byte) {
	n := copy(b.scratch[:], p)
	for i := n; i < Len; i++ {
		b.scratch[i] = ' '
	}
}

// setNumber 在 [off, off+width) 写入零填充数字。
func (b *Builder) setNumber(field string, off, width, v int) error {
	limit := 1
	for i := 0; i < width; i++ {
		limit *= 10
	}
	if v < 0 || v >= limit {
		return &FieldError{Field: field, Value: v, Width: width}
	}
	for i := off + width - 1; i >= off; i-- {
		b.scratch[i] = byte('0' + v%10)
		v /= 10
	}
	return nil
}

func (b *Builder) SetRecordLength(n int) error { return b.setNumber("record_length", 0, 5, n) }

func (b *Builder) SetIndicatorLength(n int) error { return b.setNumber("indicator_length", 10, 1, n) }

func (b *Builder) SetSubfieldIDLength(n int) error {
	return b.setNumber("subfield_id_length", 11, 1, n)
}

func (b *Builder) SetBaseAddress(n int) error { return b.setNumber("base_address", 12, 5, n) }

func (b *Builder) SetDataFieldLength(n int) error {
	return b.setNumber("data_field_length", 20, 1, n)
}

func (b *Builder) SetStartingPositionLength(n int) error {
	return b.setNumber("starting_position_length", 21, 1, n)
}

func (b *Builder) SetSegmentIDLength(n int) error {
	return b.setNumber("segment_id_length", 22, 1, n)
}

func (b *Builder) SetStatus(v RecordStatus) { b.scratch[5] = byte(v) }
func (b *Builder) SetTypeOfRecord(v TypeOfRecord) { b.scratch[6] = byte(v) }
func (b *Builder) SetBibliographicLevel(v BibliographicLevel) { b.scratch[7] = byte(v) }
func (b *Builder) SetTypeOfControl(v TypeOfControl) { b.scratch[8] = byte(v) }
func (b *Builder) SetEncoding(v Encoding) { b.scratch[9] = byte(v) }
func (b *Builder) SetEncodingLevel(v EncodingLevel) { b.scratch[17] = byte(v) }
func (b *Builder) SetCatalogingForm(v CatalogingForm) { b.scratch[18] = byte(v) }
func (b *Builder) SetMultipartLevel(v MultipartLevel) { b.scratch[19] = byte(v) }

// SetReserved 写入位置 23（实现定义，常见为 '0'）。
func (b *Builder) SetReserved(c byte) { b.scratch[23] = c }

// Build 修复暂存区并派生不可变标签；同一 Builder 可继续修改后再次 Build。
func (b *Builder) Build() Label {
	raw := b.scratch
	repair(&raw)
	return decode(raw)
}

// repair 数值位非数字置 '0'；枚举位的控制字节、'^'、'-' 置 ' '。
func repair(raw *[Len]byte) {
	for _, i := range numericPos {
		if c := raw[i]; c < '0' || c > '9' {
			raw[i] = '0'
		}
	}
	for _, i := range enumPos {
		if c := raw[i]; c < 0x20 || c == 0x7f || c == '^' || c == '-' {
			raw[i] = ' '
		}
	}
}
