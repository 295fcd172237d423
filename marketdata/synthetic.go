package marketdata

import "time"

const (
	syntheticBase   = 100.0
	syntheticGrowth = 1.002
)

// SyntheticSeries 生成基准 100、日涨 0.2% 的合成日线,
// 日期以 end 当天为终点逐日回溯。数据源不可用时用作回退,
// 调用方必须把结果标记为合成数据。
func SyntheticSeries(points int, end time.Time) []Point {
	if points <= 0 {
		return nil
	}

	day := end.Truncate(24 * time.Hour)
	out := make([]Point, points)
	close := syntheticBase
	for i := 0; i < points; i++ {
		out[i] = Point{
			Date:  day.AddDate(0, 0, i-points+1),
			Close: close,
		}
		close *= syntheticGrowth
	}
	return out
}
