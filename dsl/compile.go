package dsl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ByLCY/freeposter/layout"
)

// Attr 返回顶层属性，例如 background、preload。
func (d *Document) Attr(key string) (*Value, bool) {
	for _, st := range d.Statements {
		if st.Assignment != nil && st.Assignment.Key == key {
			return st.Assignment.Value, true
		}
	}
	return nil, false
}

// Items 返回脚本中按出现顺序排列的绘制项。
func (d *Document) Items() []*ItemBlock {
	var out []*ItemBlock
	for _, st := range d.Statements {
		if st.Item != nil {
			out = append(out, st.Item)
		}
	}
	return out
}

// Background 返回顶层的 background 颜色，未设置时为空。
func (d *Document) Background() string {
	v, ok := d.Attr("background")
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}

// Preload 返回顶层 preload 数组中的图片地址。
func (d *Document) Preload() []string {
	v, ok := d.Attr("preload")
	if !ok {
		return nil
	}
	if s, ok := v.Text(); ok {
		return []string{s}
	}
	if v.Array == nil {
		return nil
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		if s, ok := item.Text(); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Descriptors 把全部绘制项编译为线上格式，未知属性视为错误。
// 类型标签不做检查，留给 layout.Descriptor.Item 判定。
func (d *Document) Descriptors() ([]layout.Descriptor, error) {
	items := d.Items()
	out := make([]layout.Descriptor, 0, len(items))
	for _, item := range items {
		desc, err := item.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

// Descriptor 把单个绘制项转换为 layout.Descriptor。
func (b *ItemBlock) Descriptor() (layout.Descriptor, error) {
	fields := map[string]any{"type": b.Kind}
	for _, entry := range b.Entries {
		if entry.Key == "type" {
			return layout.Descriptor{}, fmt.Errorf("第 %d 行: type 由 %s 块决定，不能单独设置", entry.Pos.Line, b.Kind)
		}
		if _, dup := fields[entry.Key]; dup {
			return layout.Descriptor{}, fmt.Errorf("第 %d 行: 属性 %s 重复", entry.Pos.Line, entry.Key)
		}
		fields[entry.Key] = entry.Value.Interface()
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return layout.Descriptor{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var desc layout.Descriptor
	if err := dec.Decode(&desc); err != nil {
		return layout.Descriptor{}, fmt.Errorf("第 %d 行 %s 块: %w", b.Pos.Line, b.Kind, err)
	}
	return desc, nil
}
