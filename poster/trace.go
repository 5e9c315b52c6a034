package poster

import (
	"github.com/ByLCY/freeposter/layout"
)

// TraceEntry 记录一次绘制的输入与计算结果，用于调试输出。
type TraceEntry struct {
	Kind    layout.Kind           `json:"kind"`
	Item    layout.Item           `json:"item"`
	Path    *layout.RoundRectPath `json:"path,omitempty"`
	Text    *traceText            `json:"text,omitempty"`
	Skipped *traceSkip            `json:"skipped,omitempty"`
}

type traceText struct {
	Font   string            `json:"font"`
	Layout layout.TextLayout `json:"layout"`
}

type traceSkip struct {
	Reason string `json:"reason"`
}

func (e *Engine) record(item layout.Item, path *layout.RoundRectPath, detail any) {
	entry := TraceEntry{Kind: item.Kind(), Item: item, Path: path}
	switch d := detail.(type) {
	case *traceText:
		entry.Text = d
	case *traceSkip:
		entry.Skipped = d
	}
	e.traceMu.Lock()
	e.trace = append(e.trace, entry)
	e.traceMu.Unlock()
}

func (e *Engine) resetTrace() {
	e.traceMu.Lock()
	e.trace = nil
	e.traceMu.Unlock()
}

// Trace 返回自上次 Clear 以来的绘制记录。
func (e *Engine) Trace() []TraceEntry {
	e.traceMu.Lock()
	defer e.traceMu.Unlock()
	out := make([]TraceEntry, len(e.trace))
	copy(out, e.trace)
	return out
}

// WriteTrace 把绘制记录写成 JSON 文件。
func (e *Engine) WriteTrace(path string) error {
	return layout.WriteDebugJSON(e.Trace(), path)
}
