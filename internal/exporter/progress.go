package exporter

// 导出阶段
const (
	StageLoad      = "读取设备列表"
	StageIndicator = "计算指标"
	StageRows      = "写入设备"
	StageSummary   = "写入汇总"
	StageDone      = "导出完成"
)

// ProgressEvent 导出进度
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// progressReporter 单调进度上报，百分比不回退、重复值不重发
type progressReporter struct {
	fn   func(ProgressEvent)
	last int
}

func newProgressReporter(fn func(ProgressEvent)) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (r *progressReporter) report(percent int, stage string) {
	if r == nil || r.fn == nil {
		return
	}
	percent = min(max(percent, 0), 100)
	if percent <= r.last {
		return
	}
	r.last = percent
	r.fn(ProgressEvent{Percent: percent, Stage: stage})
}
