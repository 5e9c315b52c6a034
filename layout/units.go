package layout

import "math"

// 设计稿采用固定 750 宽的虚拟网格（rpx），与设备像素密度无关。

// DesignWidth 是设计网格的总宽度。
const DesignWidth = 750.0

// Converter 在设计单位与设备像素之间换算。
// ScreenWidth 在启动时从宿主环境读取一次，引擎生命周期内视为常量。
type Converter struct {
	ScreenWidth float64
}

// NewConverter 返回以 screenWidth 为设备宽度的换算器，非正数时退化为 1:1。
func NewConverter(screenWidth float64) Converter {
	if screenWidth <= 0 {
		screenWidth = DesignWidth
	}
	return Converter{ScreenWidth: screenWidth}
}

func (c Converter) ratio() float64 {
	if c.ScreenWidth <= 0 {
		return 1
	}
	return c.ScreenWidth / DesignWidth
}

// ToPx 将设计单位换算为设备像素，结果取整。
func (c Converter) ToPx(rpx float64) float64 {
	return roundHalfUp(c.ratio() * rpx)
}

// ToRpx 将设备像素换算回设计单位，同样取整。
func (c Converter) ToRpx(px float64) float64 {
	return roundHalfUp(px / c.ratio())
}

// roundHalfUp 与 JavaScript 的 Math.round 一致：.5 向正无穷取整（-2.5 → -2）。
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
