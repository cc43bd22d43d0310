// Package label 实现 ISO 2709 24 字节记录标签（leader）的定宽编解码。
//
// 布局（0 起始）：
//
//	0-4   记录长度（5 位数字）
//	5     记录状态
//	6     记录类型
//	7     书目级别
//	8     控制类型
//	9     字符编码方案
//	10    指示符长度（1 位数字）
//	11    子字段标识长度（1 位数字）
//	12-16 数据基地址（5 位数字）
//	17    编码级别
//	18    描述编目形式
//	19    多部分资源记录级别
//	20    字段长度的长度（1 位数字）
//	21    起始字符位置的长度（1 位数字）
//	22    实现定义部分的长度（1 位数字）
//	23    保留
//
// 解码是全函数：任何输入都先修复再解析，永不失败。
package label

import "strconv"

// Len 为标签固定长度。
const Len = 24

// Label: 不可变的标签值。所有字段均由修复后的 24 字节文本派生。
type Label struct {
	raw [Len]byte

	recordLength     int
	status           RecordStatus
	typ              TypeOfRecord
	level            BibliographicLevel
	control          TypeOfControl
	encoding         Encoding
	indicatorLength  int
	subfieldIDLength int
	baseAddress      int
	encodingLevel    EncodingLevel
	catalogingForm   CatalogingForm
	multipart        MultipartLevel
	dataFieldLength  int
	startPosLength   int
	segmentIDLength  int
	reserved         byte
}

// From 解析字符串形式的标签：不足 24 右补空格，超出截断。
func From(s string) Label {
	b := NewBuilder()
	b.load([]byte(s))
	return b.Build()
}

// FromBytes 解析字节形式的标签（规则同 From）。
func FromBytes(p []byte) Label {
	b := NewBuilder()
	b.load(p)
	return b.Build()
}

// Synthesize 返回方言合成用的标签：给定指示符长度与子字段标识长度，
// 目录项映射为标准 "4500"，其余数值位为 0、枚举位为空格。
func Synthesize(indicatorLength, subfieldIDLength int) Label {
	b := NewBuilder()
	// 两者均为 1 位数字；越界时保留 0
	_ = b.SetIndicatorLength(indicatorLength)
	_ = b.SetSubfieldIDLength(subfieldIDLength)
	_ = b.SetDataFieldLength(4)
	_ = b.SetStartingPositionLength(5)
	_ = b.SetSegmentIDLength(0)
	b.SetReserved('0')
	return b.Build()
}

// Default 返回缺省合成标签（指示符长度 2，子字段标识长度 1）。
func Default() Label { return Synthesize(2, 1) }

// String 返回 24 字符文本形式。
func (l Label) String() string { return string(l.raw[:]) }

// Bytes 返回 24 字节副本。
func (l Label) Bytes() []byte {
	out := make([]byte, Len)
	copy(out, l.raw[:])
	return out
}

func (l Label) RecordLength() int { return l.recordLength }
func (l Label) Status() RecordStatus { return l.status }
func (l Label) TypeOfRecord() TypeOfRecord { return l.typ }
func (l Label) BibliographicLevel() BibliographicLevel { return l.level }
func (l Label) TypeOfControl() TypeOfControl { return l.control }
func (l Label) Encoding() Encoding { return l.encoding }
func (l Label) IndicatorLength() int { return l.indicatorLength }
func (l Label) SubfieldIDLength() int { return l.subfieldIDLength }
func (l Label) BaseAddress() int { return l.baseAddress }
func (l Label) EncodingLevel() EncodingLevel { return l.encodingLevel }
func (l Label) CatalogingForm() CatalogingForm { return l.catalogingForm }
func (l Label) MultipartLevel() MultipartLevel { return l.multipart }
func (l Label) DataFieldLength() int { return l.dataFieldLength }
func (l Label) StartingPositionLength() int { return l.startPosLength }
func (l Label) SegmentIDLength() int { return l.segmentIDLength }
func (l Label) Reserved() byte { return l.reserved }

// Builder 返回以本标签为初值的构造器。
func (l Label) Builder() *Builder {
	return &Builder{scratch: l.raw}
}

// WithRecordLength 返回记录长度更新后的副本。
func (l Label) WithRecordLength(n int) (Label, error) {
	b := l.Builder()
	if err := b.SetRecordLength(n); err != nil {
		return l, err
	}
	return b.Build(), nil
}

// WithBaseAddress 返回数据基地址更新后的副本。
func (l Label) WithBaseAddress(n int) (Label, error) {
	b := l.Builder()
	if err := b.SetBaseAddress(n); err != nil {
		return l, err
	}
	return b.Build(), nil
}

// decode 从已修复的文本派生全部类型化字段；集合外的枚举字节在文本中同样改写为缺省值。
func decode(raw [Len]byte) Label {
	l := Label{raw: raw}
	l.recordLength = digits(raw[0:5])
	l.status = RecordStatus(raw[5])
	if !l.status.valid() {
		l.status = StatusUnspecified
		l.raw[5] = byte(l.status)
	}
	l.typ = TypeOfRecord(raw[6])
	if !l.typ.valid() {
		l.typ = TypeUnspecified
		l.raw[6] = byte(l.typ)
	}
	l.level = BibliographicLevel(raw[7])
	if !l.level.valid() {
		l.level = LevelUnspecified
		l.raw[7] = byte(l.level)
	}
	l.control = TypeOfControl(raw[8])
	if !l.control.valid() {
		l.control = ControlUnspecified
		l.raw[8] = byte(l.control)
	}
	l.encoding = Encoding(raw[9])
	if !l.encoding.valid() {
		l.encoding = EncodingMARC8
		l.raw[9] = byte(l.encoding)
	}
	l.indicatorLength = digits(raw[10:11])
	l.subfieldIDLength = digits(raw[11:12])
	l.baseAddress = digits(raw[12:17])
	l.encodingLevel = EncodingLevel(raw[17])
	if !l.encodingLevel.valid() {
		l.encodingLevel = EncodingLevelFull
		l.raw[17] = byte(l.encodingLevel)
	}
	l.catalogingForm = CatalogingForm(raw[18])
	if !l.catalogingForm.valid() {
		l.catalogingForm = CatalogingNonISBD
		l.raw[18] = byte(l.catalogingForm)
	}
	l.multipart = MultipartLevel(raw[19])
	if !l.multipart.valid() {
		l.multipart = MultipartUnspecified
		l.raw[19] = byte(l.multipart)
	}
	l.dataFieldLength = digits(raw[20:21])
	l.startPosLength = digits(raw[21:22])
	l.segmentIDLength = digits(raw[22:23])
	l.reserved = raw[23]
	return l
}

// digits 解析已修复的数字位（修复后恒为 ASCII 数字）。
func digits(p []byte) int {
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 0
	}
	return n
}
