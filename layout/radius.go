package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Radius 保存四个角的圆角半径（设计单位），顺序与 CSS 一致：左上、右上、右下、左下。
type Radius [4]float64

// DefaultRadius 是未指定圆角时使用的半径。
var DefaultRadius = UniformRadius(2)

// UniformRadius 将单个半径广播到四个角。
func UniformRadius(r float64) Radius {
	return Radius{r, r, r, r}
}

// ParseRadius 解析以空格分隔的半径字符串。
// 支持 1 个值（四角相同）、4 个值（左上 右上 右下 左下），以及 CSS 简写的 2/3 个值。
func ParseRadius(value string) (Radius, error) {
	fields := strings.Fields(value)
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSuffix(f, "rpx"), 64)
		if err != nil {
			return Radius{}, fmt.Errorf("圆角 %q 无法解析: %w", value, err)
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		return UniformRadius(nums[0]), nil
	case 2:
		return Radius{nums[0], nums[1], nums[0], nums[1]}, nil
	case 3:
		return Radius{nums[0], nums[1], nums[2], nums[1]}, nil
	case 4:
		return Radius{nums[0], nums[1], nums[2], nums[3]}, nil
	default:
		return Radius{}, fmt.Errorf("圆角 %q 需要 1~4 个数值", value)
	}
}

// IsUniform 报告四个角是否相同。
func (r Radius) IsUniform() bool {
	return r[0] == r[1] && r[1] == r[2] && r[2] == r[3]
}

func (r Radius) String() string {
	if r.IsUniform() {
		return strconv.FormatFloat(r[0], 'f', -1, 64)
	}
	parts := make([]string, 4)
	for i, v := range r {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

// UnmarshalJSON 接受数字或字符串两种写法。
func (r *Radius) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*r = UniformRadius(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("radius 必须是数字或字符串: %s", data)
	}
	parsed, err := ParseRadius(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalJSON 对四角相同的半径输出数字，否则输出字符串。
func (r Radius) MarshalJSON() ([]byte, error) {
	if r.IsUniform() {
		return json.Marshal(r[0])
	}
	return json.Marshal(r.String())
}

// UnmarshalYAML 同样接受标量数字或字符串。
func (r *Radius) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("radius 必须是标量 (line %d)", node.Line)
	}
	parsed, err := ParseRadius(node.Value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
