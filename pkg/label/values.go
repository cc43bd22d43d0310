package label

// 枚举位值类型：每个值即其在标签中的定义字节。
// 解析时遇到集合外字节，按 Unspecified（' '）处理，文本形式与类型化访问器一致。

// RecordStatus 位置 5。
type RecordStatus byte

const (
	StatusUnspecified        RecordStatus = ' '
	StatusIncreaseInLevel    RecordStatus = 'a'
	StatusCorrected          RecordStatus = 'c'
	StatusDeleted            RecordStatus = 'd'
	StatusNew                RecordStatus = 'n'
	StatusObsolete           RecordStatus = 'o'
	StatusIncreaseFromPrepub RecordStatus = 'p'
	StatusDeletedSplit       RecordStatus = 's'
	StatusDeletedReplaced    RecordStatus = 'x'
)

func (v RecordStatus) valid() bool {
	switch v {
	case StatusUnspecified, StatusIncreaseInLevel, StatusCorrected, StatusDeleted, StatusNew,
		StatusObsolete, StatusIncreaseFromPrepub, StatusDeletedSplit, StatusDeletedReplaced:
		return true
	}
	return false
}

// TypeOfRecord 位置 6。
type TypeOfRecord byte

const (
	TypeUnspecified        TypeOfRecord = ' '
	TypeLanguageMaterial   TypeOfRecord = 'a'
	TypeNotatedMusic       TypeOfRecord = 'c'
	TypeManuscriptMusic    TypeOfRecord = 'd'
	TypeCartographic       TypeOfRecord = 'e'
	TypeManuscriptCarto    TypeOfRecord = 'f'
	TypeProjectedMedium    TypeOfRecord = 'g'
	TypeNonmusicalSound    TypeOfRecord = 'i'
	TypeMusicalSound       TypeOfRecord = 'j'
	TypeTwoDimensional     TypeOfRecord = 'k'
	TypeComputerFile       TypeOfRecord = 'm'
	TypeKit                TypeOfRecord = 'o'
	TypeMixedMaterials     TypeOfRecord = 'p'
	TypeCommunityInfo      TypeOfRecord = 'q'
	TypeThreeDimensional   TypeOfRecord = 'r'
	TypeManuscriptLanguage TypeOfRecord = 't'
	TypeHoldingsUnknown    TypeOfRecord = 'u'
	TypeHoldingsMultipart  TypeOfRecord = 'v'
	TypeClassification     TypeOfRecord = 'w'
	TypeHoldingsSinglePart TypeOfRecord = 'x'
	TypeHoldingsSerial     TypeOfRecord = 'y'
	TypeAuthority          TypeOfRecord = 'z'
)

func (v TypeOfRecord) valid() bool {
	switch v {
	case TypeUnspecified, TypeLanguageMaterial, TypeNotatedMusic, TypeManuscriptMusic, TypeCartographic,
		TypeManuscriptCarto, TypeProjectedMedium, TypeNonmusicalSound, TypeMusicalSound, TypeTwoDimensional,
		TypeComputerFile, TypeKit, TypeMixedMaterials, TypeCommunityInfo, TypeThreeDimensional,
		TypeManuscriptLanguage, TypeHoldingsUnknown, TypeHoldingsMultipart, TypeClassification,
		TypeHoldingsSinglePart, TypeHoldingsSerial, TypeAuthority:
		return true
	}
	return false
}

// BibliographicLevel 位置 7。
type BibliographicLevel byte

const (
	LevelUnspecified     BibliographicLevel = ' '
	LevelMonographicPart BibliographicLevel = 'a'
	LevelSerialPart      BibliographicLevel = 'b'
	LevelCollection      BibliographicLevel = 'c'
	LevelSubunit         BibliographicLevel = 'd'
	LevelIntegratingRes  BibliographicLevel = 'i'
	LevelMonograph       BibliographicLevel = 'm'
	LevelSerial          BibliographicLevel = 's'
)

func (v BibliographicLevel) valid() bool {
	switch v {
	case LevelUnspecified, LevelMonographicPart, LevelSerialPart, LevelCollection, LevelSubunit,
		LevelIntegratingRes, LevelMonograph, LevelSerial:
		return true
	}
	return false
}

// TypeOfControl 位置 8。
type TypeOfControl byte

const (
	ControlUnspecified TypeOfControl = ' '
	ControlArchival    TypeOfControl = 'a'
)

func (v TypeOfControl) valid() bool { return v == ControlUnspecified || v == ControlArchival }

// Encoding 位置 9（字符编码方案）。
type Encoding byte

const (
	EncodingMARC8 Encoding = ' '
	EncodingUCS   Encoding = 'a'
)

func (v Encoding) valid() bool { return v == EncodingMARC8 || v == EncodingUCS }

// EncodingLevel 位置 17。
type EncodingLevel byte

const (
	EncodingLevelFull          EncodingLevel = ' '
	EncodingLevelFullNotExam   EncodingLevel = '1'
	EncodingLevelLessThanFull  EncodingLevel = '2'
	EncodingLevelAbbreviated   EncodingLevel = '3'
	EncodingLevelCore          EncodingLevel = '4'
	EncodingLevelPartial       EncodingLevel = '5'
	EncodingLevelMinimal       EncodingLevel = '7'
	EncodingLevelPrepub        EncodingLevel = '8'
	EncodingLevelMixed         EncodingLevel = 'm'
	EncodingLevelComplete      EncodingLevel = 'n'
	EncodingLevelIncomplete    EncodingLevel = 'o'
	EncodingLevelUnknown       EncodingLevel = 'u'
	EncodingLevelNotApplicable EncodingLevel = 'z'
)

func (v EncodingLevel) valid() bool {
	switch v {
	case EncodingLevelFull, EncodingLevelFullNotExam, EncodingLevelLessThanFull, EncodingLevelAbbreviated,
		EncodingLevelCore, EncodingLevelPartial, EncodingLevelMinimal, EncodingLevelPrepub,
		EncodingLevelMixed, EncodingLevelComplete, EncodingLevelIncomplete, EncodingLevelUnknown,
		EncodingLevelNotApplicable:
		return true
	}
	return false
}

// CatalogingForm 位置 18（描述编目形式）。
type CatalogingForm byte

const (
	CatalogingNonISBD     CatalogingForm = ' '
	CatalogingAACR2       CatalogingForm = 'a'
	CatalogingISBDOmitted CatalogingForm = 'c'
	CatalogingISBD        CatalogingForm = 'i'
	CatalogingNonISBDOmit CatalogingForm = 'n'
	CatalogingUnknown     CatalogingForm = 'u'
)

func (v CatalogingForm) valid() bool {
	switch v {
	case CatalogingNonISBD, CatalogingAACR2, CatalogingISBDOmitted, CatalogingISBD,
		CatalogingNonISBDOmit, CatalogingUnknown:
		return true
	}
	return false
}

// MultipartLevel 位置 19（多部分资源记录级别）。
type MultipartLevel byte

const (
	MultipartUnspecified MultipartLevel = ' '
	MultipartSet         MultipartLevel = 'a'
	MultipartIndependent MultipartLevel = 'b'
	MultipartDependent   MultipartLevel = 'c'
)

func (v MultipartLevel) valid() bool {
	switch v {
	case MultipartUnspecified, MultipartSet, MultipartIndependent, MultipartDependent:
		return true
	}
	return false
}
