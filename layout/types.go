package layout

// 该文件定义海报绘制项：编译期可区分的 Item 联合类型，以及 JSON/YAML 线上格式 Descriptor。

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Kind 是绘制项的类型标签。
type Kind string

const (
	KindImage Kind = "image"
	KindShape Kind = "shape"
	KindText  Kind = "text"
)

var (
	// ErrUnsupportedItemType 表示绘制项类型不在 {image, shape, text} 之内。
	ErrUnsupportedItemType = errors.New("不支持的绘制项类型")
	// ErrInvalidItem 表示绘制项缺少必填字段。
	ErrInvalidItem = errors.New("绘制项不合法")
)

// UnsupportedItemTypeError 记录无法识别的类型标签。
type UnsupportedItemTypeError struct {
	Type string
}

func (e *UnsupportedItemTypeError) Error() string {
	return fmt.Sprintf("[poster]: %s 类型不存在", e.Type)
}

func (e *UnsupportedItemTypeError) Is(target error) bool {
	return target == ErrUnsupportedItemType
}

// Box 是绘制项的几何信息（设计单位）。
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item 是绘制项联合类型，只有本包内的 ImageItem、ShapeItem、TextItem 实现它。
type Item interface {
	Kind() Kind
	item()
}

// ImageItem 绘制一张按圆角矩形裁剪的图片。
type ImageItem struct {
	Box
	Src             string `json:"src"`
	Radius          Radius `json:"radius"`
	BackgroundColor string `json:"backgroundColor,omitempty"` // 绘制在透明图片下方
}

// ShapeItem 绘制一个圆角矩形，可填充、描边或两者兼有。
type ShapeItem struct {
	Box
	Radius      Radius  `json:"radius"`
	FillStyle   string  `json:"fillStyle,omitempty"`
	StrokeStyle string  `json:"strokeStyle,omitempty"`
	LineWidth   float64 `json:"lineWidth,omitempty"`
}

// TextItem 在 Box 内绘制多行文本。Height 不参与排版。
// Opacity 为 0 时文本不可见；通过 Descriptor 解码时缺省为 1。
type TextItem struct {
	Box
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
	BaseLine   string  `json:"baseLine"`
	TextAlign  string  `json:"textAlign"`
	Opacity    float64 `json:"opacity"`
	LineNum    int     `json:"lineNum"`
	LineHeight float64 `json:"lineHeight,omitempty"`
	FontWeight string  `json:"fontWeight"`
	FontStyle  string  `json:"fontStyle"`
	FontFamily string  `json:"fontFamily"`
}

func (ImageItem) Kind() Kind { return KindImage }
func (ShapeItem) Kind() Kind { return KindShape }
func (TextItem) Kind() Kind  { return KindText }

func (ImageItem) item() {}
func (ShapeItem) item() {}
func (TextItem) item()  {}

// WithDefaults 补齐文本项的可选字段，Opacity 除外。
func (t TextItem) WithDefaults() TextItem {
	if t.TextAlign == "" {
		t.TextAlign = "left"
	}
	if t.LineNum <= 0 {
		t.LineNum = 1
	}
	if t.FontWeight == "" {
		t.FontWeight = "normal"
	}
	if t.FontStyle == "" {
		t.FontStyle = "normal"
	}
	if t.FontFamily == "" {
		t.FontFamily = "sans-serif"
	}
	if t.BaseLine == "" {
		t.BaseLine = "alphabetic"
	}
	return t
}

// EffectiveLineHeight 返回行距（设计单位），未设置时等于字号。
func (t TextItem) EffectiveLineHeight() float64 {
	if t.LineHeight != 0 {
		return t.LineHeight
	}
	return t.FontSize
}

// Descriptor 是绘制项的线上格式，type 决定其余字段中哪些有效。
type Descriptor struct {
	Type   string  `json:"type" yaml:"type"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`

	// image / shape
	Src             string  `json:"src,omitempty" yaml:"src,omitempty"`
	Radius          *Radius `json:"radius,omitempty" yaml:"radius,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	FillStyle       string  `json:"fillStyle,omitempty" yaml:"fillStyle,omitempty"`
	StrokeStyle     string  `json:"strokeStyle,omitempty" yaml:"strokeStyle,omitempty"`
	LineWidth       float64 `json:"lineWidth,omitempty" yaml:"lineWidth,omitempty"`

	// text
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	FontSize   float64  `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Color      string   `json:"color,omitempty" yaml:"color,omitempty"`
	BaseLine   string   `json:"baseLine,omitempty" yaml:"baseLine,omitempty"`
	TextAlign  string   `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
	Opacity    *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	LineNum    int      `json:"lineNum,omitempty" yaml:"lineNum,omitempty"`
	LineHeight float64  `json:"lineHeight,omitempty" yaml:"lineHeight,omitempty"`
	FontWeight string   `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	FontStyle  string   `json:"fontStyle,omitempty" yaml:"fontStyle,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
}

// Item 将线上格式转换为具体的绘制项。未知类型返回 *UnsupportedItemTypeError。
func (d Descriptor) Item() (Item, error) {
	box := Box{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
	radius := DefaultRadius
	if d.Radius != nil {
		radius = *d.Radius
	}
	switch Kind(d.Type) {
	case KindImage:
		if d.Src == "" {
			return nil, fmt.Errorf("%w: image 缺少 src", ErrInvalidItem)
		}
		return ImageItem{Box: box, Src: d.Src, Radius: radius, BackgroundColor: d.BackgroundColor}, nil
	case KindShape:
		return ShapeItem{
			Box:         box,
			Radius:      radius,
			FillStyle:   d.FillStyle,
			StrokeStyle: d.StrokeStyle,
			LineWidth:   d.LineWidth,
		}, nil
	case KindText:
		if d.FontSize <= 0 {
			return nil, fmt.Errorf("%w: text 缺少 fontSize", ErrInvalidItem)
		}
		if d.Color == "" {
			return nil, fmt.Errorf("%w: text 缺少 color", ErrInvalidItem)
		}
		opacity := 1.0
		if d.Opacity != nil {
			opacity = *d.Opacity
		}
		return TextItem{
			Box:        box,
			Text:       d.Text,
			FontSize:   d.FontSize,
			Color:      d.Color,
			BaseLine:   d.BaseLine,
			TextAlign:  d.TextAlign,
			Opacity:    opacity,
			LineNum:    d.LineNum,
			LineHeight: d.LineHeight,
			FontWeight: d.FontWeight,
			FontStyle:  d.FontStyle,
			FontFamily: d.FontFamily,
		}.WithDefaults(), nil
	default:
		return nil, &UnsupportedItemTypeError{Type: d.Type}
	}
}

// DecodeDescriptors 解析 JSON 数组形式的绘制项列表，未知字段视为错误。
func DecodeDescriptors(data []byte) ([]Descriptor, error) {
	var out []Descriptor
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("解析绘制项 JSON 失败: %w", err)
	}
	return out, nil
}

// DecodeDescriptorsYAML 解析 YAML 序列形式的绘制项列表，未知字段视为错误。
func DecodeDescriptorsYAML(data []byte) ([]Descriptor, error) {
	var out []Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("解析绘制项 YAML 失败: %w", err)
	}
	return out, nil
}
